package index

import (
	"strconv"
	"strings"

	"github.com/pdiddy/bibmerge/pkg/types"
)

// CSLItem represents a bibliographic entry in CSL (Citation Style Language)
// format. The field names and structure follow the CSL-JSON/CSL-YAML schema
// so that output is consumable by Pandoc and reference managers.
type CSLItem struct {
	ID             string    `yaml:"id"`
	Type           string    `yaml:"type"`
	Title          string    `yaml:"title,omitempty"`
	Author         []CSLName `yaml:"author,omitempty"`
	Editor         []CSLName `yaml:"editor,omitempty"`
	ContainerTitle string    `yaml:"container-title,omitempty"`
	Publisher      string    `yaml:"publisher,omitempty"`
	Volume         string    `yaml:"volume,omitempty"`
	Issue          string    `yaml:"issue,omitempty"`
	Page           string    `yaml:"page,omitempty"`
	Issued         *CSLDate  `yaml:"issued,omitempty"`
	DOI            string    `yaml:"DOI,omitempty"`
	URL            string    `yaml:"URL,omitempty"`
}

// CSLName represents a person's name in CSL format.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate represents a date in CSL format using date-parts.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// cslTypes maps BibTeX entry types to CSL item types.
var cslTypes = map[string]string{
	"article":       "article-journal",
	"book":          "book",
	"booklet":       "pamphlet",
	"inbook":        "chapter",
	"incollection":  "chapter",
	"inproceedings": "paper-conference",
	"conference":    "paper-conference",
	"manual":        "report",
	"mastersthesis": "thesis",
	"phdthesis":     "thesis",
	"techreport":    "report",
	"unpublished":   "manuscript",
	"online":        "webpage",
}

var months = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var braceStripper = strings.NewReplacer("{", "", "}", "")

// ToCSLItem converts a merged record to a CSLItem.
func ToCSLItem(r types.Record) CSLItem {
	typ, ok := cslTypes[r.Type]
	if !ok {
		typ = "document"
	}
	item := CSLItem{
		ID:        r.ID,
		Type:      typ,
		Title:     plain(r.Get(types.FieldTitle)),
		Author:    parseNames(r.Get(types.FieldAuthor)),
		Editor:    parseNames(r.Get("editor")),
		Publisher: plain(r.Get("publisher")),
		Volume:    plain(r.Get("volume")),
		Issue:     plain(r.Get("number")),
		Page:      strings.ReplaceAll(plain(r.Get("pages")), "--", "-"),
		DOI:       plain(r.Get(types.FieldDOI)),
		URL:       plain(r.Get("url")),
	}

	for _, name := range []string{"journal", "booktitle", "series"} {
		if v := plain(r.Get(name)); v != "" {
			item.ContainerTitle = v
			break
		}
	}

	if year, err := strconv.Atoi(strings.TrimSpace(r.Get("year"))); err == nil {
		parts := []int{year}
		if m := parseMonth(r.Get("month")); m > 0 {
			parts = append(parts, m)
		}
		item.Issued = &CSLDate{DateParts: [][]int{parts}}
	}

	return item
}

// plain strips brace markup and folds line breaks into spaces.
func plain(s string) string {
	s = braceStripper.Replace(s)
	return strings.Join(strings.Fields(s), " ")
}

func parseMonth(s string) int {
	s = strings.ToLower(strings.TrimSpace(plain(s)))
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= 12 {
		return n
	}
	if len(s) >= 3 {
		return months[s[:3]]
	}
	return 0
}

// parseNames splits a BibTeX name list on " and ".
func parseNames(list string) []CSLName {
	list = plain(list)
	if list == "" {
		return nil
	}
	var names []CSLName
	for _, n := range strings.Split(list, " and ") {
		if name := parseAuthorName(n); name != (CSLName{}) {
			names = append(names, name)
		}
	}
	return names
}

// parseAuthorName splits one name into CSL family/given parts. "Family,
// Given" is split on the first comma; otherwise everything before the last
// space is given and the last token is family. Single-token names use the
// literal field.
func parseAuthorName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	if family, given, ok := strings.Cut(name, ","); ok {
		return CSLName{
			Family: strings.TrimSpace(family),
			Given:  strings.TrimSpace(given),
		}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{
		Given:  name[:idx],
		Family: name[idx+1:],
	}
}
