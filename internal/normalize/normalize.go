// Package normalize flattens heterogeneous nested API payloads into the flat
// relational comment shape. Absent values become empty strings, never nulls,
// so every row binds fully against the SQL parameter list.
package normalize

import (
	"html"
	"strings"

	"github.com/commonsdocs/reggov-scraper/internal/model"
	"github.com/commonsdocs/reggov-scraper/internal/regulations"
)

// Normalize converts raw comment details into persistence-ready records.
// full_text is always defined, even when extraction yielded nothing.
func Normalize(details []*regulations.Detail) []model.CommentRecord {
	records := make([]model.CommentRecord, 0, len(details))
	for _, detail := range details {
		flat := Flatten(detail.Body)
		rec := model.CommentRecord{
			CommentID:            str(flat["data_id"]),
			DocumentID:           str(flat["data_attributes_commentOnDocumentId"]),
			DocketID:             str(flat["data_attributes_docketId"]),
			AgencyID:             str(flat["data_attributes_agencyId"]),
			Title:                str(flat["data_attributes_title"]),
			Comment:              str(flat["data_attributes_comment"]),
			CommentPDFExtracted:  str(flat["data_attributes_pdf_extracted_text"]),
			CommenterFirstName:   str(flat["data_attributes_firstName"]),
			CommenterLastName:    str(flat["data_attributes_lastName"]),
			CommenterOrg:         str(flat["data_attributes_organization"]),
			CommenterAddress1:    str(flat["data_attributes_address1"]),
			CommenterAddress2:    str(flat["data_attributes_address2"]),
			CommenterZip:         str(flat["data_attributes_zip"]),
			CommenterCity:        str(flat["data_attributes_city"]),
			CommenterStateRegion: str(flat["data_attributes_stateProvinceRegion"]),
			CommenterCountry:     str(flat["data_attributes_country"]),
			CommenterEmail:       str(flat["data_attributes_email"]),
			ReceiveDate:          str(flat["data_attributes_receiveDate"]),
			PostedDate:           str(flat["data_attributes_postedDate"]),
			PostmarkDate:         str(flat["data_attributes_postmarkDate"]),
			DuplicateComments:    intVal(flat["data_attributes_duplicateComments"]),
			AttachmentRead:       str(flat["data_attributes_attachment_read"]),
			AttachmentURL:        str(flat["data_attributes_attachments_url"]),
			Withdrawn:            boolVal(flat["data_attributes_withdrawn"]),
			APIURL:               str(flat["data_links_self"]),
		}
		if rec.AttachmentRead == "" {
			rec.AttachmentRead = model.AttachmentNone
		}
		rec.FullText = rec.Comment + " " + rec.CommentPDFExtracted
		records = append(records, rec)
	}
	return records
}

// str coerces a flattened value to its string form; nil and non-strings
// become the empty-string sentinel.
func str(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return s
}

// intVal coerces a flattened JSON number (float64) to int.
func intVal(v any) int {
	switch n := v.(type) {
	case float64:
		return int(n)
	case int:
		return n
	default:
		return 0
	}
}

func boolVal(v any) bool {
	b, ok := v.(bool)
	return ok && b
}

// htmlReplacements rewrites, in order, the HTML artifacts and NUL bytes seen
// in comment text before the residue is unescaped.
var htmlReplacements = [][2]string{
	{"&amp;", "&"},
	{"&gt;", ">"},
	{"&lt;", "<"},
	{"&nbsp;", " "},
	{"&quot;", `"`},
	{"&#39;", "'"},
	{"&#34;", `"`},
	{"nan", ""},
	{"<br>", " "},
	{"<br/>", " "},
	{"\n", " "},
	{"\x00", ""},
}

// CleanString scrubs NUL bytes, markup remnants, and "See Attached"
// boilerplate from a text column value.
func CleanString(s string) string {
	for _, r := range htmlReplacements {
		s = strings.ReplaceAll(s, r[0], r[1])
	}
	s = strings.ReplaceAll(s, "See Attached", "")
	s = strings.ReplaceAll(s, "See attached file(s)", "")
	return html.UnescapeString(s)
}
