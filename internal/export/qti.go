package export

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/mind-engage/lessonquiz/internal/quiz"
)

// QTI packages qs as an IMS QTI 2.1 content package: a manifest plus one
// assessment item per question, choices listed in view order.
func QTI(qs quiz.List, view quiz.View) ([]byte, error) {
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)

	mf := imsManifest{
		Xmlns:     "http://www.imsglobal.org/xsd/imscp_v1p1",
		Resources: []imsResource{},
	}
	for _, q := range qs {
		itemName := fmt.Sprintf("%s.xml", q.QuestionID())
		mf.Resources = append(mf.Resources, imsResource{
			Identifier: q.QuestionID(),
			Type:       "imsqti_item_xmlv2p1",
			Href:       itemName,
			Files:      []imsFile{{Href: itemName}},
		})
		w, err := zw.Create(itemName)
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(buildItemXML(q, view))); err != nil {
			return nil, err
		}
	}

	mfw, err := zw.Create("imsmanifest.xml")
	if err != nil {
		return nil, err
	}
	b, err := xml.MarshalIndent(mf, "", "  ")
	if err != nil {
		return nil, err
	}
	if _, err := mfw.Write([]byte(xml.Header)); err != nil {
		return nil, err
	}
	if _, err := mfw.Write(b); err != nil {
		return nil, err
	}

	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type imsManifest struct {
	XMLName   xml.Name      `xml:"manifest"`
	Xmlns     string        `xml:"xmlns,attr,omitempty"`
	Resources []imsResource `xml:"resources>resource"`
}
type imsResource struct {
	Identifier string    `xml:"identifier,attr"`
	Type       string    `xml:"type,attr"`
	Href       string    `xml:"href,attr"`
	Files      []imsFile `xml:"file"`
}
type imsFile struct {
	Href string `xml:"href,attr"`
}

const itemTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<assessmentItem identifier="%s" title="%s" xmlns="http://www.imsglobal.org/xsd/imsqti_v2p1">
  <responseDeclaration identifier="RESPONSE" cardinality="%s" baseType="%s">
    <correctResponse>%s</correctResponse>
  </responseDeclaration>
  <itemBody>
    %s
  </itemBody>
</assessmentItem>`

func buildItemXML(q quiz.Question, view quiz.View) string {
	id := esc(q.QuestionID())
	switch q := q.(type) {
	case *quiz.TrueFalse:
		answer := "false"
		if q.Correct {
			answer = "true"
		}
		body := fmt.Sprintf(`<choiceInteraction responseIdentifier="RESPONSE" maxChoices="1">
      <prompt>%s</prompt>
      <simpleChoice identifier="true">True</simpleChoice>
      <simpleChoice identifier="false">False</simpleChoice>
    </choiceInteraction>`, esc(q.Question))
		return fmt.Sprintf(itemTemplate, id, id, "single", "identifier", value(answer), body)

	case *quiz.MultipleChoice:
		card, maxChoices := "single", 1
		correct := q.CorrectIDs()
		if len(correct) > 1 {
			card, maxChoices = "multiple", 0
		}
		var choices, values strings.Builder
		for _, o := range view.OptionsFor(q) {
			fmt.Fprintf(&choices, "\n      <simpleChoice identifier=\"%s\">%s</simpleChoice>", esc(o.ID), esc(o.Text))
		}
		for _, c := range correct {
			values.WriteString(value(c))
		}
		body := fmt.Sprintf(`<choiceInteraction responseIdentifier="RESPONSE" shuffle="false" maxChoices="%d">
      <prompt>%s</prompt>%s
    </choiceInteraction>`, maxChoices, esc(q.Question), choices.String())
		return fmt.Sprintf(itemTemplate, id, id, card, "identifier", values.String(), body)

	case *quiz.Matching:
		rights := view.RightsFor(q)
		var sources, targets, values strings.Builder
		for _, it := range q.Items {
			fmt.Fprintf(&sources, "\n        <simpleAssociableChoice identifier=\"%s\" matchMax=\"1\">%s</simpleAssociableChoice>", esc(it.ID), esc(it.Left))
		}
		for k, r := range rights {
			fmt.Fprintf(&targets, "\n        <simpleAssociableChoice identifier=\"R%d\" matchMax=\"0\">%s</simpleAssociableChoice>", k+1, esc(r))
		}
		for _, it := range q.Items {
			for k, r := range rights {
				if r == it.Right {
					values.WriteString(value(fmt.Sprintf("%s R%d", it.ID, k+1)))
					break
				}
			}
		}
		body := fmt.Sprintf(`<matchInteraction responseIdentifier="RESPONSE" shuffle="false" maxAssociations="%d">
      <prompt>%s</prompt>
      <simpleMatchSet>%s
      </simpleMatchSet>
      <simpleMatchSet>%s
      </simpleMatchSet>
    </matchInteraction>`, len(q.Items), esc(q.Title), sources.String(), targets.String())
		return fmt.Sprintf(itemTemplate, id, esc(q.Title), "multiple", "directedPair", values.String(), body)

	case *quiz.FillBlank:
		body := fmt.Sprintf(`<p>%s <textEntryInteraction responseIdentifier="RESPONSE"/></p>`, esc(q.Prompt))
		return fmt.Sprintf(itemTemplate, id, id, "single", "string", value(q.Answer), body)
	}
	return ""
}

func value(s string) string { return "<value>" + esc(s) + "</value>" }

func esc(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
