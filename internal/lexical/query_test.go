package lexical

import "testing"

func TestParseBareWordsImplicitAnd(t *testing.T) {
	node, err := Parse("deploy rollback")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != NodeAnd || len(node.Children) != 2 {
		t.Fatalf("Parse(bare words) = %+v, want a 2-child AND", node)
	}
}

func TestParseExplicitOr(t *testing.T) {
	node, err := Parse("deploy OR rollback")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != NodeOr || len(node.Children) != 2 {
		t.Fatalf("Parse(OR) = %+v, want a 2-child OR", node)
	}
}

func TestParseQuotedPhrase(t *testing.T) {
	node, err := Parse(`"rolling deploy"`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != NodePhrase || len(node.Phrase) != 2 {
		t.Fatalf("Parse(phrase) = %+v, want a 2-term phrase", node)
	}
}

func TestParseFieldRestriction(t *testing.T) {
	node, err := Parse("tags:urgent")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != NodeTerm || node.Field != "tags" {
		t.Fatalf("Parse(field:term) = %+v, want field=tags", node)
	}
}

func TestParseParenGrouping(t *testing.T) {
	node, err := Parse("(a OR b) c")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if node.Kind != NodeAnd || len(node.Children) != 2 {
		t.Fatalf("Parse(grouped) = %+v, want top-level AND of 2", node)
	}
	if node.Children[0].Kind != NodeOr {
		t.Errorf("first child = %+v, want OR", node.Children[0])
	}
}

func TestParseEmptyQueryErrors(t *testing.T) {
	if _, err := Parse("   "); err == nil {
		t.Error("Parse(empty) = nil error, want error")
	}
}

func TestHasOperators(t *testing.T) {
	cases := map[string]bool{
		"deploy rollback":     false,
		`"exact phrase"`:      true,
		"tags:urgent":         true,
		"deploy AND rollback": true,
		"deploy OR rollback":  true,
		"(deploy)":            true,
	}
	for q, want := range cases {
		if got := HasOperators(q); got != want {
			t.Errorf("HasOperators(%q) = %v, want %v", q, got, want)
		}
	}
}
