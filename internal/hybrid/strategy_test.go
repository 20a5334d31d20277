package hybrid

import "testing"

func TestSelectStrategyShortQueryIsKeyword(t *testing.T) {
	if got := SelectStrategy("auth bug", StrategyAuto); got != StrategyKeyword {
		t.Errorf("SelectStrategy(2 tokens) = %v, want keyword", got)
	}
}

func TestSelectStrategyLongQueryIsSemantic(t *testing.T) {
	q := "what did we decide about the database migration rollback plan last week"
	if got := SelectStrategy(q, StrategyAuto); got != StrategySemantic {
		t.Errorf("SelectStrategy(long) = %v, want semantic", got)
	}
}

func TestSelectStrategyMidLengthIsHybrid(t *testing.T) {
	if got := SelectStrategy("database migration rollback plan", StrategyAuto); got != StrategyHybrid {
		t.Errorf("SelectStrategy(mid) = %v, want hybrid", got)
	}
}

func TestSelectStrategyQuotedForcesKeyword(t *testing.T) {
	q := `find memories about "exact phrase here please" across everything`
	if got := SelectStrategy(q, StrategyAuto); got != StrategyKeyword {
		t.Errorf("SelectStrategy(quoted) = %v, want keyword", got)
	}
}

func TestSelectStrategyFieldOperatorForcesKeyword(t *testing.T) {
	if got := SelectStrategy("tag:infra rollback", StrategyAuto); got != StrategyKeyword {
		t.Errorf("SelectStrategy(field op) = %v, want keyword", got)
	}
}

func TestSelectStrategyExplicitRequestOverridesAuto(t *testing.T) {
	if got := SelectStrategy("short", StrategySemantic); got != StrategySemantic {
		t.Errorf("SelectStrategy(explicit) = %v, want semantic passthrough", got)
	}
}
