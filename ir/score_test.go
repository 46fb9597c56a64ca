package ir

import "testing"

func TestLooksPredicates(t *testing.T) {
	if !LooksInt("42") || LooksInt("4.2") || LooksInt("not-a-number") {
		t.Fatalf("LooksInt misclassified an input")
	}
	if !LooksLong("9223372036854775807") {
		t.Fatalf("expected a max-int64 literal to parse as a long")
	}
	if !LooksDouble("3.14") || LooksDouble("abc") {
		t.Fatalf("LooksDouble misclassified an input")
	}
	if !LooksBool("TRUE") || !LooksBool("false") || LooksBool("maybe") {
		t.Fatalf("LooksBool misclassified an input")
	}
}

func TestScoreArgTypeNameRewardsIntAndBoolMatches(t *testing.T) {
	if s := ScoreArg("42", TypeName{Name: "Int"}); s != 3 {
		t.Fatalf("expected a numeric literal scored against Int to get 3, got %d", s)
	}
	if s := ScoreArg("nope", TypeName{Name: "Int"}); s != 0 {
		t.Fatalf("expected a non-numeric literal scored against Int to get 0, got %d", s)
	}
	if s := ScoreArg("true", TypeName{Name: "Bool"}); s != 3 {
		t.Fatalf("expected \"true\" scored against Bool to get 3, got %d", s)
	}
	if s := ScoreArg("anything", TypeName{Name: "Text"}); s != 1 {
		t.Fatalf("expected an arbitrary TypeName to score 1, got %d", s)
	}
}

func TestScoreArgOptionAndMaybePreferNullishOverInnerRecursion(t *testing.T) {
	elem := TypeName{Name: "Int"}
	if s := ScoreArg("null", OptionType{Elem: elem}); s != 2 {
		t.Fatalf("expected \"null\" against Option<Int> to score 2, got %d", s)
	}
	if s := ScoreArg("none", MaybeType{Elem: elem}); s != 2 {
		t.Fatalf("expected \"none\" against Maybe<Int> to score 2, got %d", s)
	}
	if s := ScoreArg("42", OptionType{Elem: elem}); s != 1+3 {
		t.Fatalf("expected \"42\" against Option<Int> to score 1+ScoreArg(Int)=4, got %d", s)
	}
}

func TestScoreArgListAndMapPreferBracketedForms(t *testing.T) {
	elem := TypeName{Name: "Int"}
	if s := ScoreArg("[1,2,3]", ListType{Elem: elem}); s != 3 {
		t.Fatalf("expected a bracketed list literal to score 3, got %d", s)
	}
	if s := ScoreArg("1,2,3", ListType{Elem: elem}); s != 2 {
		t.Fatalf("expected a comma-separated list literal to score 2, got %d", s)
	}
	if s := ScoreArg("oneitem", ListType{Elem: elem}); s != 1 {
		t.Fatalf("expected a bare value against ListT to score 1, got %d", s)
	}

	mt := MapType{Key: TypeName{Name: "Text"}, Value: elem}
	if s := ScoreArg("{a:1}", mt); s != 3 {
		t.Fatalf("expected a braced map literal to score 3, got %d", s)
	}
	if s := ScoreArg("a:1", mt); s != 2 {
		t.Fatalf("expected a colon-bearing value to score 2, got %d", s)
	}
	if s := ScoreArg("nocolon", mt); s != 0 {
		t.Fatalf("expected a value with neither braces nor a colon to score 0, got %d", s)
	}
}

func TestScoreArgResultFuncTypeVarAndPii(t *testing.T) {
	rt := ResultType{Ok: TypeName{Name: "Int"}, Err: TypeName{Name: "Text"}}
	if s := ScoreArg("Ok(1)", rt); s != 2 {
		t.Fatalf("expected \"Ok(1)\" against Result to score 2, got %d", s)
	}
	if s := ScoreArg("Err(boom)", rt); s != 2 {
		t.Fatalf("expected \"Err(boom)\" against Result to score 2, got %d", s)
	}
	if s := ScoreArg("1", rt); s != 0 {
		t.Fatalf("expected a bare value against Result to score 0, got %d", s)
	}

	ft := FuncType{Params: []Type{TypeName{Name: "Int"}}, Ret: TypeName{Name: "Int"}}
	if s := ScoreArg("x -> x + 1", ft); s != 3 {
		t.Fatalf("expected an arrow-bearing literal against FuncType to score 3, got %d", s)
	}
	if s := ScoreArg("1", ft); s != 0 {
		t.Fatalf("expected a bare value against FuncType to score 0, got %d", s)
	}

	if s := ScoreArg("anything", TypeVar{Name: "T"}); s != 1 {
		t.Fatalf("expected TypeVar to always score 1, got %d", s)
	}

	pii := PiiType{Base: TypeName{Name: "Int"}, Category: "ssn", Sensitivity: "high"}
	if s := ScoreArg("42", pii); s != 3 {
		t.Fatalf("expected PiiType to recurse into its base and score like Int, got %d", s)
	}
}

func TestScoreArgTypeAppTakesMaxOfBaseAndArgs(t *testing.T) {
	app := TypeApp{Base: TypeName{Name: "Text"}, Args: []Type{TypeName{Name: "Int"}}}
	if s := ScoreArg("42", app); s != 3 {
		t.Fatalf("expected TypeApp to take the max of base (1) and arg (3) scores, got %d", s)
	}
}

func TestScoreOverloadRequiresMatchingArity(t *testing.T) {
	params := []Param{{Name: "a", Type: TypeName{Name: "Int"}}}
	if _, eligible := ScoreOverload([]string{"1", "2"}, params); eligible {
		t.Fatalf("expected a surplus-argument call to be ineligible")
	}
	if _, eligible := ScoreOverload(nil, params); eligible {
		t.Fatalf("expected a missing-argument call to be ineligible")
	}
	score, eligible := ScoreOverload([]string{"1"}, params)
	if !eligible || score != 3 {
		t.Fatalf("expected a matching-arity call to be eligible with score 3, got eligible=%v score=%d", eligible, score)
	}
}

func TestSelectCanonicalPrefersMostParamsWithoutCLIArgs(t *testing.T) {
	decls := []*FuncDecl{
		{Name: "f"},
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Int"}}}},
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Int"}}, {Name: "b", Type: TypeName{Name: "Int"}}}},
	}
	got := SelectCanonical(decls, nil)
	if len(got.Params) != 2 {
		t.Fatalf("expected the two-parameter overload to be selected, got %d params", len(got.Params))
	}
}

func TestSelectCanonicalScoresEligibleOverloadsWhenCLIArgsPresent(t *testing.T) {
	// "true" scores 3 against Bool and 0 against Int: the Bool overload
	// must win even though it is declared second.
	decls := []*FuncDecl{
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Int"}}}},
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Bool"}}}},
	}
	got := SelectCanonical(decls, []string{"true"})
	if got != decls[1] {
		t.Fatalf("expected the Bool overload to win on score, got params %v", got.Params)
	}
}

func TestSelectCanonicalBreaksTiesByDeclarationOrder(t *testing.T) {
	decls := []*FuncDecl{
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Text"}}}},
		{Name: "f", Params: []Param{{Name: "a", Type: TypeVar{Name: "T"}}}},
	}
	// Both TypeName "Text" (default case) and TypeVar score 1 against any
	// argument: the earlier-declared overload must win the tie.
	got := SelectCanonical(decls, []string{"anything"})
	if got != decls[0] {
		t.Fatalf("expected the earliest-declared overload to win a scoring tie")
	}
}

func TestSelectCanonicalSkipsIneligibleOverloadsByArity(t *testing.T) {
	decls := []*FuncDecl{
		{Name: "f"},
		{Name: "f", Params: []Param{{Name: "a", Type: TypeName{Name: "Int"}}}},
	}
	// A single CLI argument is only eligible against the one-parameter
	// overload; the zero-parameter overload must not be considered.
	got := SelectCanonical(decls, []string{"42"})
	if len(got.Params) != 1 {
		t.Fatalf("expected the one-parameter overload to be selected, got %d params", len(got.Params))
	}
}
