// Package model defines the flat relational records produced by a scrape run.
package model

// AttachmentRead values recorded on a comment after extraction.
const (
	AttachmentNone      = "no attachment"
	AttachmentExtracted = "attachment extracted"
	AttachmentFailed    = "attachment failed"
)

// CommentRecord is one normalized public comment, keyed by CommentID.
// Comments are immutable once persisted: the writer uses insert-or-ignore.
type CommentRecord struct {
	CommentID            string
	DocketID             string
	AgencyID             string
	Title                string
	Comment              string
	CommentPDFExtracted  string
	CommenterFirstName   string
	CommenterLastName    string
	CommenterOrg         string
	CommenterAddress1    string
	CommenterAddress2    string
	CommenterZip         string
	CommenterCity        string
	CommenterStateRegion string
	CommenterCountry     string
	CommenterEmail       string
	ReceiveDate          string
	PostedDate           string
	PostmarkDate         string
	DuplicateComments    int
	AttachmentRead       string
	AttachmentURL        string
	Withdrawn            bool
	APIURL               string
	FullText             string
	DocumentID           string
}

// DocketRecord is mutable docket metadata, keyed by DocketID and upserted
// on every run so the row always reflects the latest API values.
type DocketRecord struct {
	DocketID      string
	AgencyID      string
	Title         string
	DocketType    string
	Keywords      []string
	Abstract      string
	Category      string
	ModifyDate    string
	EffectiveDate string
	Organization  string
	Program       string
	RIN           string
	ObjectID      string
	DocketURL     string
}

// DocumentRecord is mutable document metadata, keyed by DocumentID and
// upserted like dockets.
type DocumentRecord struct {
	DocumentID         string
	OriginalDocumentID string
	DocumentType       string
	Subtype            string
	DocketID           string
	AgencyID           string
	Title              string
	Abstract           string
	Topics             []string
	Subject            string
	CommentStartDate   string
	CommentEndDate     string
	EffectiveDate      string
	ImplementationDate string
	ModifiedDate       string
	OpenForComment     bool
	AllowLateComments  bool
	ObjectID           string
	Withdrawn          bool
	DocumentURL        string
	Attachments        []string
}

// StatusRecord is the run's durable completion marker, unique on DataDate.
// The ledger only keeps the first successful attempt per date.
type StatusRecord struct {
	Date              string
	DataDate          string
	NumberOfComments  int
	NumberOfDockets   int
	ScrapeTimestamp   string
	NumberOfDocuments int
}
