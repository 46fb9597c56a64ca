package ir

import (
	"encoding/json"

	corelang "github.com/dshills/corelang-go"
)

// Decode parses a structured IR module from JSON bytes. It is the
// collaborator contract spec §6 describes as "structured input": any
// fields this package does not recognize are ignored; a required field
// missing from a node fails with a LoadError naming the node kind and
// field.
func Decode(data []byte) (*Module, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, corelang.Wrap(corelang.KindLoadError, err, "malformed module JSON")
	}
	return DecodeModule(raw)
}

// DecodeModule decodes an already-unmarshalled generic map into a
// Module. Exposed separately so embedders that already hold decoded
// JSON (or an equivalent generic representation from another format)
// can skip the json.Unmarshal round trip.
func DecodeModule(raw map[string]any) (*Module, error) {
	name, _ := raw["name"].(string)
	rawDecls, ok := raw["decls"].([]any)
	if !ok {
		return nil, corelang.NewError(corelang.KindLoadError, "module missing decls")
	}
	m := &Module{Name: name}
	for _, rd := range rawDecls {
		obj, ok := rd.(map[string]any)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "decl must be an object")
		}
		d, err := decodeDecl(obj)
		if err != nil {
			return nil, err
		}
		m.Decls = append(m.Decls, d)
	}
	return m, nil
}

func kindOf(obj map[string]any) (string, error) {
	k, ok := obj["kind"].(string)
	if !ok {
		return "", corelang.NewError(corelang.KindLoadError, "node missing \"kind\" field")
	}
	return k, nil
}

func requireString(obj map[string]any, field, nodeKind string) (string, error) {
	v, ok := obj[field].(string)
	if !ok {
		return "", corelang.NewError(corelang.KindLoadError, "%s: missing required field %q", nodeKind, field)
	}
	return v, nil
}

func requireObject(obj map[string]any, field, nodeKind string) (map[string]any, error) {
	v, ok := obj[field].(map[string]any)
	if !ok {
		return nil, corelang.NewError(corelang.KindLoadError, "%s: missing required field %q", nodeKind, field)
	}
	return v, nil
}

func requireArray(obj map[string]any, field, nodeKind string) ([]any, error) {
	v, ok := obj[field].([]any)
	if !ok {
		return nil, corelang.NewError(corelang.KindLoadError, "%s: missing required field %q", nodeKind, field)
	}
	return v, nil
}

func optionalArray(obj map[string]any, field string) []any {
	v, _ := obj[field].([]any)
	return v
}

func stringList(items []any) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i], _ = it.(string)
	}
	return out
}

func decodeDecl(obj map[string]any) (Decl, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Func":
		return decodeFuncDecl(obj)
	case "Data":
		return decodeDataDecl(obj)
	case "Enum":
		return decodeEnumDecl(obj)
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unknown decl kind %q", kind)
	}
}

func decodeFuncDecl(obj map[string]any) (*FuncDecl, error) {
	name, err := requireString(obj, "name", "Func")
	if err != nil {
		return nil, err
	}
	rawParams, err := requireArray(obj, "params", "Func")
	if err != nil {
		// Zero-parameter functions may omit params; only error if the key
		// is present with the wrong type.
		if _, present := obj["params"]; present {
			return nil, err
		}
		rawParams = nil
	}
	params, err := decodeParams(rawParams)
	if err != nil {
		return nil, err
	}
	retObj, err := requireObject(obj, "ret", "Func")
	if err != nil {
		return nil, err
	}
	ret, err := decodeType(retObj)
	if err != nil {
		return nil, err
	}
	bodyObj, err := requireObject(obj, "body", "Func")
	if err != nil {
		return nil, err
	}
	body, err := decodeBlock(bodyObj)
	if err != nil {
		return nil, err
	}
	effects := stringList(optionalArray(obj, "effects"))
	return &FuncDecl{Name: name, Params: params, Ret: ret, Effects: effects, Body: body}, nil
}

func decodeParams(raw []any) ([]Param, error) {
	out := make([]Param, 0, len(raw))
	for _, r := range raw {
		obj, ok := r.(map[string]any)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "param must be an object")
		}
		name, err := requireString(obj, "name", "param")
		if err != nil {
			return nil, err
		}
		typeObj, err := requireObject(obj, "type", "param")
		if err != nil {
			return nil, err
		}
		t, err := decodeType(typeObj)
		if err != nil {
			return nil, err
		}
		out = append(out, Param{Name: name, Type: t})
	}
	return out, nil
}

func decodeDataDecl(obj map[string]any) (*DataDecl, error) {
	name, err := requireString(obj, "name", "Data")
	if err != nil {
		return nil, err
	}
	rawFields, err := requireArray(obj, "fields", "Data")
	if err != nil {
		return nil, err
	}
	fields, err := decodeParams(rawFields)
	if err != nil {
		return nil, err
	}
	return &DataDecl{Name: name, Fields: fields}, nil
}

func decodeEnumDecl(obj map[string]any) (*EnumDecl, error) {
	name, err := requireString(obj, "name", "Enum")
	if err != nil {
		return nil, err
	}
	rawVariants, err := requireArray(obj, "variants", "Enum")
	if err != nil {
		return nil, err
	}
	return &EnumDecl{Name: name, Variants: stringList(rawVariants)}, nil
}

func decodeBlock(obj map[string]any) (Block, error) {
	rawStmts, ok := obj["statements"].([]any)
	if !ok {
		// Treat missing statements as empty body rather than a load error:
		// distinguishes "no field" from "field wrong type".
		if _, present := obj["statements"]; present {
			return Block{}, corelang.NewError(corelang.KindLoadError, "block: statements must be an array")
		}
		return Block{}, nil
	}
	stmts := make([]Stmt, 0, len(rawStmts))
	for _, rs := range rawStmts {
		sobj, ok := rs.(map[string]any)
		if !ok {
			return Block{}, corelang.NewError(corelang.KindLoadError, "statement must be an object")
		}
		s, err := decodeStmt(sobj)
		if err != nil {
			return Block{}, err
		}
		stmts = append(stmts, s)
	}
	return Block{Stmts: stmts}, nil
}

func decodeStmt(obj map[string]any) (Stmt, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Return":
		e, err := decodeExprField(obj, "expr", "Return")
		if err != nil {
			return nil, err
		}
		return ReturnStmt{Expr: e}, nil
	case "Let":
		name, err := requireString(obj, "name", "Let")
		if err != nil {
			return nil, err
		}
		e, err := decodeExprField(obj, "expr", "Let")
		if err != nil {
			return nil, err
		}
		return LetStmt{Name: name, Expr: e}, nil
	case "Set":
		name, err := requireString(obj, "name", "Set")
		if err != nil {
			return nil, err
		}
		e, err := decodeExprField(obj, "expr", "Set")
		if err != nil {
			return nil, err
		}
		return SetStmt{Name: name, Expr: e}, nil
	case "If":
		cond, err := decodeExprField(obj, "cond", "If")
		if err != nil {
			return nil, err
		}
		thenObj, err := requireObject(obj, "thenBlock", "If")
		if err != nil {
			return nil, err
		}
		thenBlk, err := decodeBlock(thenObj)
		if err != nil {
			return nil, err
		}
		stmt := IfStmt{Cond: cond, ThenBlock: thenBlk}
		if elseObj, ok := obj["elseBlock"].(map[string]any); ok {
			elseBlk, err := decodeBlock(elseObj)
			if err != nil {
				return nil, err
			}
			stmt.ElseBlock = elseBlk
			stmt.HasElse = true
		}
		return stmt, nil
	case "Match":
		e, err := decodeExprField(obj, "expr", "Match")
		if err != nil {
			return nil, err
		}
		rawCases, err := requireArray(obj, "cases", "Match")
		if err != nil {
			return nil, err
		}
		cases := make([]MatchCase, 0, len(rawCases))
		for _, rc := range rawCases {
			cobj, ok := rc.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "match case must be an object")
			}
			patObj, err := requireObject(cobj, "pattern", "Match case")
			if err != nil {
				return nil, err
			}
			pat, err := decodePattern(patObj)
			if err != nil {
				return nil, err
			}
			bodyObj, err := requireObject(cobj, "body", "Match case")
			if err != nil {
				return nil, err
			}
			body, err := decodeBlock(bodyObj)
			if err != nil {
				return nil, err
			}
			cases = append(cases, MatchCase{Pattern: pat, Body: body})
		}
		return MatchStmt{Expr: e, Cases: cases}, nil
	case "Scope":
		rawStmts, err := requireArray(obj, "statements", "Scope")
		if err != nil {
			return nil, err
		}
		stmts := make([]Stmt, 0, len(rawStmts))
		for _, rs := range rawStmts {
			sobj, ok := rs.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "statement must be an object")
			}
			s, err := decodeStmt(sobj)
			if err != nil {
				return nil, err
			}
			stmts = append(stmts, s)
		}
		return ScopeStmt{Stmts: stmts}, nil
	case "Start":
		name, err := requireString(obj, "name", "Start")
		if err != nil {
			return nil, err
		}
		e, err := decodeExprField(obj, "expr", "Start")
		if err != nil {
			return nil, err
		}
		return StartStmt{Name: name, Expr: e}, nil
	case "Wait":
		rawNames, err := requireArray(obj, "names", "Wait")
		if err != nil {
			return nil, err
		}
		return WaitStmt{Names: stringList(rawNames)}, nil
	case "Workflow":
		return decodeWorkflowStmt(obj)
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unknown statement kind %q", kind)
	}
}

func decodeWorkflowStmt(obj map[string]any) (Stmt, error) {
	rawSteps, err := requireArray(obj, "steps", "Workflow")
	if err != nil {
		return nil, err
	}
	steps := make([]WorkflowStep, 0, len(rawSteps))
	for _, rs := range rawSteps {
		sobj, ok := rs.(map[string]any)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "workflow step must be an object")
		}
		name, err := requireString(sobj, "name", "workflow step")
		if err != nil {
			return nil, err
		}
		bodyObj, err := requireObject(sobj, "body", "workflow step")
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(bodyObj)
		if err != nil {
			return nil, err
		}
		step := WorkflowStep{
			Name:         name,
			Body:         body,
			Dependencies: stringList(optionalArray(sobj, "dependencies")),
		}
		if compObj, ok := sobj["compensate"].(map[string]any); ok {
			compBlk, err := decodeBlock(compObj)
			if err != nil {
				return nil, err
			}
			step.Compensate = &compBlk
		}
		if retryObj, ok := sobj["retry"].(map[string]any); ok {
			maxAttempts, _ := retryObj["maxAttempts"].(float64)
			strategy, _ := retryObj["strategy"].(string)
			baseDelay, _ := retryObj["baseDelayMilliseconds"].(float64)
			step.Retry = &RetrySpec{
				MaxAttempts:    int(maxAttempts),
				Strategy:       strategy,
				BaseDelayMilli: int64(baseDelay),
			}
		}
		steps = append(steps, step)
	}
	stmt := WorkflowStmt{Steps: steps}
	if tObj, ok := obj["timeout"].(map[string]any); ok {
		ms, _ := tObj["milliseconds"].(float64)
		stmt.TimeoutMillis = int64(ms)
		stmt.HasTimeout = true
	}
	return stmt, nil
}

func decodeExprField(obj map[string]any, field, nodeKind string) (Expr, error) {
	eobj, err := requireObject(obj, field, nodeKind)
	if err != nil {
		return nil, err
	}
	return decodeExpr(eobj)
}

func decodeExpr(obj map[string]any) (Expr, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "String":
		v, err := requireString(obj, "value", "String")
		if err != nil {
			return nil, err
		}
		return StringExpr{Value: v}, nil
	case "Int":
		v, ok := obj["value"].(float64)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "Int: missing required field \"value\"")
		}
		return IntExpr{Value: int32(v)}, nil
	case "Long":
		v, ok := obj["value"].(float64)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "Long: missing required field \"value\"")
		}
		return LongExpr{Value: int64(v)}, nil
	case "Double":
		v, ok := obj["value"].(float64)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "Double: missing required field \"value\"")
		}
		return DoubleExpr{Value: v}, nil
	case "Bool":
		v, ok := obj["value"].(bool)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "Bool: missing required field \"value\"")
		}
		return BoolExpr{Value: v}, nil
	case "Null":
		return NullExpr{}, nil
	case "Name":
		v, err := requireString(obj, "name", "Name")
		if err != nil {
			return nil, err
		}
		return NameExpr{Name: v}, nil
	case "Call":
		targetObj, err := requireObject(obj, "target", "Call")
		if err != nil {
			return nil, err
		}
		target, err := decodeExpr(targetObj)
		if err != nil {
			return nil, err
		}
		rawArgs := optionalArray(obj, "args")
		args := make([]Expr, 0, len(rawArgs))
		for _, ra := range rawArgs {
			aobj, ok := ra.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "Call arg must be an object")
			}
			a, err := decodeExpr(aobj)
			if err != nil {
				return nil, err
			}
			args = append(args, a)
		}
		return CallExpr{Target: target, Args: args}, nil
	case "Lambda":
		rawParams := optionalArray(obj, "params")
		params, err := decodeParams(rawParams)
		if err != nil {
			return nil, err
		}
		bodyObj, err := requireObject(obj, "body", "Lambda")
		if err != nil {
			return nil, err
		}
		body, err := decodeBlock(bodyObj)
		if err != nil {
			return nil, err
		}
		le := LambdaExpr{Params: params, Captures: stringList(optionalArray(obj, "captures")), Body: body}
		if retObj, ok := obj["ret"].(map[string]any); ok {
			ret, err := decodeType(retObj)
			if err != nil {
				return nil, err
			}
			le.Ret = ret
		}
		return le, nil
	case "Await":
		e, err := decodeExprField(obj, "expr", "Await")
		if err != nil {
			return nil, err
		}
		return AwaitExpr{Expr: e}, nil
	case "Ok":
		e, err := decodeExprField(obj, "expr", "Ok")
		if err != nil {
			return nil, err
		}
		return OkExpr{Expr: e}, nil
	case "Err":
		e, err := decodeExprField(obj, "expr", "Err")
		if err != nil {
			return nil, err
		}
		return ErrExpr{Expr: e}, nil
	case "Some":
		e, err := decodeExprField(obj, "expr", "Some")
		if err != nil {
			return nil, err
		}
		return SomeExpr{Expr: e}, nil
	case "None":
		return NoneExpr{}, nil
	case "Construct":
		typeName, err := requireString(obj, "typeName", "Construct")
		if err != nil {
			return nil, err
		}
		rawFields := optionalArray(obj, "fields")
		fields := make([]FieldInit, 0, len(rawFields))
		for _, rf := range rawFields {
			fobj, ok := rf.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "Construct field must be an object")
			}
			name, err := requireString(fobj, "name", "Construct field")
			if err != nil {
				return nil, err
			}
			e, err := decodeExprField(fobj, "expr", "Construct field")
			if err != nil {
				return nil, err
			}
			fields = append(fields, FieldInit{Name: name, Expr: e})
		}
		return ConstructExpr{TypeName: typeName, Fields: fields}, nil
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unknown expression kind %q", kind)
	}
}

func decodePattern(obj map[string]any) (Pattern, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "Wildcard":
		return WildcardPattern{}, nil
	case "Name":
		v, err := requireString(obj, "name", "Name pattern")
		if err != nil {
			return nil, err
		}
		return NamePattern{Name: v}, nil
	case "Int":
		v, ok := obj["value"].(float64)
		if !ok {
			return nil, corelang.NewError(corelang.KindLoadError, "Int pattern: missing required field \"value\"")
		}
		return IntPattern{Value: int32(v)}, nil
	case "Null":
		return NullPattern{}, nil
	case "Constructor":
		typeName, err := requireString(obj, "typeName", "Constructor pattern")
		if err != nil {
			return nil, err
		}
		positional, _ := obj["positional"].(bool)
		return ConstructorPattern{
			TypeName:   typeName,
			Fields:     stringList(optionalArray(obj, "fields")),
			Positional: positional,
		}, nil
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unknown pattern kind %q", kind)
	}
}

func decodeType(obj map[string]any) (Type, error) {
	kind, err := kindOf(obj)
	if err != nil {
		return nil, err
	}
	switch kind {
	case "TypeName":
		v, err := requireString(obj, "name", "TypeName")
		if err != nil {
			return nil, err
		}
		return TypeName{Name: v}, nil
	case "TypeVar":
		v, err := requireString(obj, "name", "TypeVar")
		if err != nil {
			return nil, err
		}
		return TypeVar{Name: v}, nil
	case "TypeApp":
		baseObj, err := requireObject(obj, "base", "TypeApp")
		if err != nil {
			return nil, err
		}
		base, err := decodeType(baseObj)
		if err != nil {
			return nil, err
		}
		rawArgs := optionalArray(obj, "args")
		args := make([]Type, 0, len(rawArgs))
		for _, ra := range rawArgs {
			aobj, ok := ra.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "TypeApp arg must be an object")
			}
			t, err := decodeType(aobj)
			if err != nil {
				return nil, err
			}
			args = append(args, t)
		}
		return TypeApp{Base: base, Args: args}, nil
	case "FuncType":
		rawParams := optionalArray(obj, "params")
		params := make([]Type, 0, len(rawParams))
		for _, rp := range rawParams {
			pobj, ok := rp.(map[string]any)
			if !ok {
				return nil, corelang.NewError(corelang.KindLoadError, "FuncType param must be an object")
			}
			t, err := decodeType(pobj)
			if err != nil {
				return nil, err
			}
			params = append(params, t)
		}
		retObj, err := requireObject(obj, "ret", "FuncType")
		if err != nil {
			return nil, err
		}
		ret, err := decodeType(retObj)
		if err != nil {
			return nil, err
		}
		return FuncType{Params: params, Ret: ret}, nil
	case "Option":
		elemObj, err := requireObject(obj, "type", "Option")
		if err != nil {
			return nil, err
		}
		elem, err := decodeType(elemObj)
		if err != nil {
			return nil, err
		}
		return OptionType{Elem: elem}, nil
	case "Maybe":
		elemObj, err := requireObject(obj, "type", "Maybe")
		if err != nil {
			return nil, err
		}
		elem, err := decodeType(elemObj)
		if err != nil {
			return nil, err
		}
		return MaybeType{Elem: elem}, nil
	case "Result":
		okObj, err := requireObject(obj, "ok", "Result")
		if err != nil {
			return nil, err
		}
		okT, err := decodeType(okObj)
		if err != nil {
			return nil, err
		}
		errObj, err := requireObject(obj, "err", "Result")
		if err != nil {
			return nil, err
		}
		errT, err := decodeType(errObj)
		if err != nil {
			return nil, err
		}
		return ResultType{Ok: okT, Err: errT}, nil
	case "ListT":
		elemObj, err := requireObject(obj, "element", "ListT")
		if err != nil {
			return nil, err
		}
		elem, err := decodeType(elemObj)
		if err != nil {
			return nil, err
		}
		return ListType{Elem: elem}, nil
	case "MapT":
		keyObj, err := requireObject(obj, "key", "MapT")
		if err != nil {
			return nil, err
		}
		key, err := decodeType(keyObj)
		if err != nil {
			return nil, err
		}
		valObj, err := requireObject(obj, "value", "MapT")
		if err != nil {
			return nil, err
		}
		val, err := decodeType(valObj)
		if err != nil {
			return nil, err
		}
		return MapType{Key: key, Value: val}, nil
	case "PiiType":
		baseObj, err := requireObject(obj, "baseType", "PiiType")
		if err != nil {
			return nil, err
		}
		base, err := decodeType(baseObj)
		if err != nil {
			return nil, err
		}
		category, _ := obj["category"].(string)
		sensitivity, _ := obj["sensitivity"].(string)
		return PiiType{Base: base, Category: category, Sensitivity: sensitivity}, nil
	default:
		return nil, corelang.NewError(corelang.KindLoadError, "unknown type kind %q", kind)
	}
}
