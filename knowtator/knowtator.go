package knowtator

import (
	"haidetect.com/hai/types"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

const (
	ehostAnnotatorID = "eHOST_2010"
	// date layout eHOST writes into creationDate
	CreationDateLayout  = "Mon Jan 02 15:04:05 MST 2006"
	FileSuffix          = ".txt.knowtator.xml"
	adjudicationFalse   = "false"
	adjudicationVersion = "1.0"
)

type Annotations struct {
	XMLName    xml.Name `xml:"annotations"`
	TextSource string   `xml:"textSource,attr"`
	// annotation, classMention and stringSlotMention elements in eHOST order
	Elements     []interface{}
	Adjudication AdjudicationStatus `xml:"eHOST_Adjudication_status"`
}

type IDRef struct {
	ID string `xml:"id,attr"`
}

type Annotator struct {
	ID   string `xml:"id,attr"`
	Name string `xml:",chardata"`
}

type Span struct {
	Start int32 `xml:"start,attr"`
	End   int32 `xml:"end,attr"`
}

type Annotation struct {
	XMLName      xml.Name  `xml:"annotation"`
	Mention      IDRef     `xml:"mention"`
	Annotator    Annotator `xml:"annotator"`
	Span         Span      `xml:"span"`
	SpannedText  string    `xml:"spannedText"`
	CreationDate string    `xml:"creationDate"`
}

type MentionClass struct {
	ID   string `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type ClassMention struct {
	XMLName         xml.Name     `xml:"classMention"`
	ID              string       `xml:"id,attr"`
	MentionClass    MentionClass `xml:"mentionClass"`
	HasSlotMentions []IDRef      `xml:"hasSlotMention"`
}

type SlotValue struct {
	Value string `xml:"value,attr"`
}

type StringSlotMention struct {
	XMLName     xml.Name  `xml:"stringSlotMention"`
	ID          string    `xml:"id,attr"`
	MentionSlot IDRef     `xml:"mentionSlot"`
	Value       SlotValue `xml:"stringSlotMentionValue"`
}

type Versioned struct {
	Version string `xml:"version,attr"`
}

type AdjudicationOthers struct {
	CheckOverlappedSpans string `xml:"CHECK_OVERLAPPED_SPANS"`
	CheckAttributes      string `xml:"CHECK_ATTRIBUTES"`
	CheckRelationship    string `xml:"CHECK_RELATIONSHIP"`
	CheckClass           string `xml:"CHECK_CLASS"`
	CheckComment         string `xml:"CHECK_COMMENT"`
}

type AdjudicationStatus struct {
	Version            string             `xml:"version,attr"`
	SelectedAnnotators Versioned          `xml:"Adjudication_Selected_Annotators"`
	SelectedClasses    Versioned          `xml:"Adjudication_Selected_Classes"`
	Others             AdjudicationOthers `xml:"Adjudication_Others"`
}

func newAdjudicationStatus() AdjudicationStatus {
	return AdjudicationStatus{
		Version:            adjudicationVersion,
		SelectedAnnotators: Versioned{adjudicationVersion},
		SelectedClasses:    Versioned{adjudicationVersion},
		Others: AdjudicationOthers{
			CheckOverlappedSpans: adjudicationFalse,
			CheckAttributes:      adjudicationFalse,
			CheckRelationship:    adjudicationFalse,
			CheckClass:           adjudicationFalse,
			CheckComment:         adjudicationFalse,
		},
	}
}

func slotMention(id string, slot string, value string) StringSlotMention {
	return StringSlotMention{
		ID:          id,
		MentionSlot: IDRef{ID: slot},
		Value:       SlotValue{Value: value},
	}
}

// annotationElements renders one annotation; the SSI class slot exists only for Evidence of SSI.
func annotationElements(ann types.Annotation, mentionID string, created string) []interface{} {
	body := Annotation{
		Mention:      IDRef{ID: mentionID},
		Annotator:    Annotator{ID: ehostAnnotatorID, Name: ann.Annotator},
		Span:         Span{Start: ann.SpanInDocument.Begin, End: ann.SpanInDocument.End},
		SpannedText:  ann.Text,
		CreationDate: created,
	}
	classMention := ClassMention{
		ID:           mentionID,
		MentionClass: MentionClass{ID: string(ann.Type), Text: ann.Text},
	}
	slots := []StringSlotMention{
		slotMention(mentionID+"1", "assertion", string(ann.Attributes.Assertion)),
		slotMention(mentionID+"2", "temporality", string(ann.Attributes.Temporality)),
	}
	if class, ok := ann.SSIClass(); ok && ann.Type == types.EvidenceOfSSI {
		slots = append(slots, slotMention(mentionID+"3", "classification", string(class)))
	}

	for _, slot := range slots {
		classMention.HasSlotMentions = append(classMention.HasSlotMentions, IDRef{ID: slot.ID})
	}

	elements := []interface{}{body, classMention}
	for _, slot := range slots {
		elements = append(elements, slot)
	}
	return elements
}

// NewAnnotations converts the document annotations of report rptID.
func NewAnnotations(doc types.Document, rptID string, created time.Time) Annotations {
	res := Annotations{
		TextSource:   rptID + ".txt",
		Adjudication: newAdjudicationStatus(),
	}
	createdStr := created.Format(CreationDateLayout)
	for i, ann := range doc.Annotations {
		mentionID := ann.ID
		if mentionID == "" {
			mentionID = ann.Annotator + "_Instance_" + strconv.Itoa(i)
		}
		res.Elements = append(res.Elements, annotationElements(ann, mentionID, createdStr)...)
	}
	return res
}

func Write(w io.Writer, doc types.Document, rptID string, created time.Time) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(NewAnnotations(doc, rptID, created)); err != nil {
		return fmt.Errorf("encode knowtator xml for %s: %w", rptID, err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}

func FileName(rptID string) string {
	return rptID + FileSuffix
}

// WriteFile saves the document as <outDir>/<rptID>.txt.knowtator.xml and returns the path.
func WriteFile(outDir string, doc types.Document, rptID string, created time.Time) (string, error) {
	info, err := os.Stat(outDir)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", outDir)
	}

	outPath := filepath.Join(outDir, FileName(rptID))
	f, err := os.Create(outPath)
	if err != nil {
		return "", err
	}
	if err := Write(f, doc, rptID, created); err != nil {
		f.Close()
		return "", err
	}
	return outPath, f.Close()
}
