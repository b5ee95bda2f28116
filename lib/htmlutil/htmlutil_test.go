package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div class="divCurrentUser">DUPONT <b>Jean</b></div>`,
	))
	if err != nil {
		t.Fatal(err)
	}
	node := doc.Find("div.divCurrentUser").Nodes[0]
	require.Equal(t, "DUPONT Jean", GetText(node))
}

func TestNormalize(t *testing.T) {
	testCases := []struct {
		input  string
		expect string
	}{
		{input: "  DUPONT\n\t Jean  ", expect: "DUPONT Jean"},
		{input: "Plannings des étudiants", expect: "Plannings des étudiants"},
		{input: "a\u200bb", expect: "ab"},
		{input: "", expect: ""},
	}

	for _, test := range testCases {
		require.Equal(t, test.expect, Normalize(test.input))
	}
}

func TestFold(t *testing.T) {
	require.Equal(t, "scolarité", Fold("  SCOLARITÉ "))
}
