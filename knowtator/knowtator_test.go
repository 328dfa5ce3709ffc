package knowtator

import (
	"bytes"
	"haidetect.com/hai/types"
	"encoding/xml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"strings"
	"testing"
	"time"
)

func testDocument() types.Document {
	return types.Document{
		ID: "rpt_7",
		Annotations: []types.Annotation{
			{
				ID:             "hai_detect_Instance_0",
				Annotator:      "hai_detect",
				Type:           types.EvidenceOfSSI,
				Attributes:     types.Attributes{Assertion: types.AssertionNegated, Temporality: types.TemporalityCurrent, SSI: &types.SSIAttributes{Class: types.SSISuperficial}},
				Classification: "Negated Evidence of SSI",
				SpanInDocument: types.NewSpan(22, 57),
				Text:           "the wound is clean, dry and intact.",
			},
			{
				Annotator:      "hai_detect",
				Type:           types.EvidenceOfPneumonia,
				Attributes:     types.Attributes{Assertion: types.AssertionPresent, Temporality: types.TemporalityHistorical},
				Classification: "Positive Evidence of Pneumonia - Historical",
				SpanInDocument: types.NewSpan(0, 21),
				Text:           "history of pneumonia.",
			},
		},
	}
}

var created = time.Date(2017, time.June, 6, 11, 56, 37, 0, time.UTC)

// generic tree used to read the output back
type node struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []node     `xml:",any"`
}

func (n node) attr(name string) string {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, testDocument(), "rpt_7", created))
	require.True(t, strings.HasPrefix(buf.String(), xml.Header))

	var root node
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &root))
	assert.Equal(t, "annotations", root.XMLName.Local)
	assert.Equal(t, "rpt_7.txt", root.attr("textSource"))

	var names []string
	for _, child := range root.Children {
		names = append(names, child.XMLName.Local)
	}
	assert.Equal(t, []string{
		"annotation", "classMention", "stringSlotMention", "stringSlotMention", "stringSlotMention",
		"annotation", "classMention", "stringSlotMention", "stringSlotMention",
		"eHOST_Adjudication_status",
	}, names)

	ssi := root.Children[0]
	assert.Equal(t, "hai_detect_Instance_0", ssi.Children[0].attr("id"))
	assert.Equal(t, "eHOST_2010", ssi.Children[1].attr("id"))
	assert.Equal(t, "hai_detect", ssi.Children[1].Text)
	assert.Equal(t, "22", ssi.Children[2].attr("start"))
	assert.Equal(t, "57", ssi.Children[2].attr("end"))
	assert.Equal(t, "the wound is clean, dry and intact.", ssi.Children[3].Text)
	assert.Equal(t, "Tue Jun 06 11:56:37 UTC 2017", ssi.Children[4].Text)

	classMention := root.Children[1]
	assert.Equal(t, "Evidence of SSI", classMention.Children[0].attr("id"))
	require.Len(t, classMention.Children, 4)
	assert.Equal(t, "hai_detect_Instance_03", classMention.Children[3].attr("id"))

	classification := root.Children[4]
	assert.Equal(t, "classification", classification.Children[0].attr("id"))
	assert.Equal(t, "superficial", classification.Children[1].attr("value"))

	// missing ids are derived from the position
	assert.Equal(t, "hai_detect_Instance_1", root.Children[6].attr("id"))
	temporality := root.Children[8]
	assert.Equal(t, "hai_detect_Instance_12", temporality.attr("id"))
	assert.Equal(t, "historical", temporality.Children[1].attr("value"))

	adjudication := root.Children[9]
	assert.Equal(t, "1.0", adjudication.attr("version"))
	others := adjudication.Children[2]
	require.Len(t, others.Children, 5)
	for _, check := range others.Children {
		assert.Equal(t, "false", check.Text)
	}
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path, err := WriteFile(dir, testDocument(), "rpt_7", created)
	require.NoError(t, err)
	assert.Equal(t, FileName("rpt_7"), "rpt_7.txt.knowtator.xml")

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `<mentionClass id="Evidence of Pneumonia">history of pneumonia.</mentionClass>`)

	_, err = WriteFile(path, testDocument(), "rpt_7", created)
	assert.Error(t, err)
}
