package aurion

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"
)

// PartialResponse is the body of a JSF partial AJAX response.
type PartialResponse struct {
	XMLName  xml.Name        `xml:"partial-response"`
	Updates  []PartialUpdate `xml:"changes>update"`
	Error    *PartialError   `xml:"error"`
	Redirect *struct {
		URL string `xml:"url,attr"`
	} `xml:"redirect"`
}

type PartialUpdate struct {
	ID      string `xml:"id,attr"`
	Content string `xml:",chardata"`
}

type PartialError struct {
	Name    string `xml:"error-name"`
	Message string `xml:"error-message"`
}

func ParsePartialResponse(body []byte) (PartialResponse, error) {
	var res PartialResponse
	err := xml.NewDecoder(bytes.NewReader(body)).Decode(&res)
	if err != nil {
		return PartialResponse{}, fmt.Errorf("%w: parse partial response: %w", ErrPageStructure, err)
	}
	// the portal answers an expired view state with an error or a redirect
	// to the login page instead of the requested updates
	if res.Error != nil {
		return PartialResponse{}, fmt.Errorf(
			"%w: partial response error %s: %s",
			ErrPageStructure,
			strings.TrimSpace(res.Error.Name),
			strings.TrimSpace(res.Error.Message),
		)
	}
	if res.Redirect != nil {
		return PartialResponse{}, fmt.Errorf("%w: partial response redirects to %s", ErrPageStructure, res.Redirect.URL)
	}
	return res, nil
}

// Update returns the content of the update with the given component id.
func (r PartialResponse) Update(id string) (string, bool) {
	for _, u := range r.Updates {
		if u.ID == id {
			return u.Content, true
		}
	}
	return "", false
}

// ViewState returns the refreshed view state carried by the response, if any.
func (r PartialResponse) ViewState() (string, bool) {
	for _, u := range r.Updates {
		if strings.Contains(u.ID, viewStateUpdate) {
			value := strings.TrimSpace(u.Content)
			return value, value != ""
		}
	}
	return "", false
}
