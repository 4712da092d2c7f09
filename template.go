package main

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"text/template"
)

// getToItPhrases rotate through the briefing's call-to-action slot,
// chosen deterministically from the date so reruns render identically.
var getToItPhrases = []string{
	"dive into",
	"take a glance at",
	"explore",
	"breakdown",
	"examine",
	"check out",
	"review",
	"analyze",
	"inspect",
	"look at",
}

func rotatePhrase(phrases []string, seed string) string {
	if len(phrases) == 0 {
		return ""
	}
	h := fnv.New32a()
	h.Write([]byte(seed))
	return phrases[h.Sum32()%uint32(len(phrases))]
}

// RenderBriefing executes the briefing template over the context map.
// The GET_TO_IT_SAYING slot is filled here, seeded by FULLDATE.
func RenderBriefing(templateText string, context Fields) (string, error) {
	if _, ok := context["GET_TO_IT_SAYING"]; !ok {
		context["GET_TO_IT_SAYING"] = rotatePhrase(getToItPhrases, context["FULLDATE"])
	}

	tmpl, err := template.New("daily").Option("missingkey=zero").Parse(templateText)
	if err != nil {
		return "", fmt.Errorf("parsing template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, context); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}

	return buf.String(), nil
}
