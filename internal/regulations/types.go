package regulations

// ListPage is one page of the comment listing endpoint.
type ListPage struct {
	Meta struct {
		TotalElements int `json:"totalElements"`
	} `json:"meta"`
	Data []ListItem `json:"data"`
}

// ListItem is one comment summary in a listing page.
type ListItem struct {
	ID         string `json:"id"`
	Attributes struct {
		LastModifiedDate string `json:"lastModifiedDate"`
	} `json:"attributes"`
}

// Detail is one raw comment detail response. Body carries the parsed JSON
// for the normalizer and extractor; Raw is the verbatim payload for archival.
type Detail struct {
	ID       string
	DocketID string
	Body     map[string]any
	Raw      []byte
}

// DocketDetail is the docket metadata endpoint response, projected to the
// attributes the persistence schema keeps.
type DocketDetail struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			AgencyID      string   `json:"agencyId"`
			Title         string   `json:"title"`
			DocketType    string   `json:"docketType"`
			Keywords      []string `json:"keywords"`
			DkAbstract    string   `json:"dkAbstract"`
			Category      string   `json:"category"`
			ModifyDate    string   `json:"modifyDate"`
			EffectiveDate string   `json:"effectiveDate"`
			Organization  string   `json:"organization"`
			Program       string   `json:"program"`
			RIN           string   `json:"rin"`
			ObjectID      string   `json:"objectId"`
		} `json:"attributes"`
		Links struct {
			Self string `json:"self"`
		} `json:"links"`
	} `json:"data"`
}

// DocumentDetail is the document metadata endpoint response.
type DocumentDetail struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			OriginalDocumentID string   `json:"originalDocumentId"`
			DocumentType       string   `json:"documentType"`
			Subtype            string   `json:"subtype"`
			DocketID           string   `json:"docketId"`
			AgencyID           string   `json:"agencyId"`
			Title              string   `json:"title"`
			DocAbstract        string   `json:"docAbstract"`
			Topics             []string `json:"topics"`
			Subject            string   `json:"subject"`
			CommentStartDate   string   `json:"commentStartDate"`
			CommentEndDate     string   `json:"commentEndDate"`
			EffectiveDate      string   `json:"effectiveDate"`
			ImplementationDate string   `json:"implementationDate"`
			ModifyDate         string   `json:"modifyDate"`
			OpenForComment     bool     `json:"openForComment"`
			AllowLateComments  bool     `json:"allowLateComments"`
			ObjectID           string   `json:"objectId"`
			Withdrawn          bool     `json:"withdrawn"`
			FileFormats        []struct {
				FileURL string `json:"fileUrl"`
			} `json:"fileFormats"`
		} `json:"attributes"`
		Links struct {
			Self string `json:"self"`
		} `json:"links"`
	} `json:"data"`
}

// commentSuffixWidth is the fixed width of the trailing sequence number that
// distinguishes a comment id from its parent docket id, separator included.
const commentSuffixWidth = 5

// ParentDocketID derives a comment's parent docket id by stripping the
// fixed-width comment suffix.
func ParentDocketID(commentID string) string {
	if len(commentID) <= commentSuffixWidth {
		return commentID
	}
	return commentID[:len(commentID)-commentSuffixWidth]
}
