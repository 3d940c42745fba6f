package ledger

import (
	"fmt"
	"strings"
	"time"

	"go.einride.tech/aip/filtering"
	expr "google.golang.org/genproto/googleapis/api/expr/v1alpha1"
)

// recordDeclarations declares the fields an undo record filter may use.
func recordDeclarations() (*filtering.Declarations, error) {
	return filtering.NewDeclarations(
		filtering.DeclareStandardFunctions(),
		filtering.DeclareIdent("kind", filtering.TypeString),
		filtering.DeclareIdent("user_id", filtering.TypeString),
		filtering.DeclareIdent("source", filtering.TypeString),
		filtering.DeclareIdent("entries", filtering.TypeInt),
		filtering.DeclareIdent("created_at", filtering.TypeTimestamp),
	)
}

// parseRecordFilter parses an AIP-160 filter. An empty filter yields nil.
func parseRecordFilter(filterStr string) (*expr.Expr, error) {
	if strings.TrimSpace(filterStr) == "" {
		return nil, nil
	}
	decls, err := recordDeclarations()
	if err != nil {
		return nil, fmt.Errorf("create declarations: %w", err)
	}
	filter, err := filtering.ParseFilterString(filterStr, decls)
	if err != nil {
		return nil, fmt.Errorf("parse filter: %w", err)
	}
	return filter.CheckedExpr.Expr, nil
}

// recordField resolves a filter field against a record.
func recordField(record Record) func(name string) (any, bool) {
	return func(name string) (any, bool) {
		switch name {
		case "kind":
			return string(record.Kind), true
		case "user_id":
			return record.UserID, true
		case "source":
			if record.Source == nil {
				return "", true
			}
			return record.Source.Key(), true
		case "entries":
			return int64(len(record.Entries)), true
		case "created_at":
			return record.CreatedAt, true
		default:
			return nil, false
		}
	}
}

func evalFilter(e *expr.Expr, resolve func(string) (any, bool)) (bool, error) {
	if e == nil {
		return true, nil
	}
	call, ok := e.ExprKind.(*expr.Expr_CallExpr)
	if !ok {
		return false, fmt.Errorf("unsupported expression type: %T", e.ExprKind)
	}

	args := call.CallExpr.Args
	switch fn := call.CallExpr.Function; fn {
	case "_&&_", "AND":
		if len(args) < 2 {
			return false, fmt.Errorf("AND requires at least 2 arguments")
		}
		for _, arg := range args {
			ok, err := evalFilter(arg, resolve)
			if err != nil || !ok {
				return false, err
			}
		}
		return true, nil
	case "_||_", "OR":
		if len(args) < 2 {
			return false, fmt.Errorf("OR requires at least 2 arguments")
		}
		for _, arg := range args {
			ok, err := evalFilter(arg, resolve)
			if err != nil {
				return false, err
			}
			if ok {
				return true, nil
			}
		}
		return false, nil
	case "!_", "NOT":
		if len(args) != 1 {
			return false, fmt.Errorf("NOT requires 1 argument")
		}
		inner, err := evalFilter(args[0], resolve)
		return !inner, err
	case "_==_", "=":
		return evalCompare("=", args, resolve)
	case "_!=_", "!=":
		return evalCompare("!=", args, resolve)
	case "_<_", "<":
		return evalCompare("<", args, resolve)
	case "_<=_", "<=":
		return evalCompare("<=", args, resolve)
	case "_>_", ">":
		return evalCompare(">", args, resolve)
	case "_>=_", ">=":
		return evalCompare(">=", args, resolve)
	default:
		return false, fmt.Errorf("unsupported function: %s", fn)
	}
}

func evalCompare(op string, args []*expr.Expr, resolve func(string) (any, bool)) (bool, error) {
	if len(args) != 2 {
		return false, fmt.Errorf("comparison requires 2 arguments")
	}
	ident, ok := args[0].ExprKind.(*expr.Expr_IdentExpr)
	if !ok {
		return false, fmt.Errorf("expected identifier, got %T", args[0].ExprKind)
	}
	left, ok := resolve(ident.IdentExpr.Name)
	if !ok {
		return false, fmt.Errorf("unknown field: %s", ident.IdentExpr.Name)
	}
	right, err := filterValue(args[1])
	if err != nil {
		return false, err
	}

	cmp, err := compareFilterValues(left, right)
	if err != nil {
		return false, err
	}
	switch op {
	case "=":
		return cmp == 0, nil
	case "!=":
		return cmp != 0, nil
	case "<":
		return cmp < 0, nil
	case "<=":
		return cmp <= 0, nil
	case ">":
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func filterValue(e *expr.Expr) (any, error) {
	switch kind := e.ExprKind.(type) {
	case *expr.Expr_ConstExpr:
		switch c := kind.ConstExpr.ConstantKind.(type) {
		case *expr.Constant_StringValue:
			return c.StringValue, nil
		case *expr.Constant_Int64Value:
			return c.Int64Value, nil
		default:
			return nil, fmt.Errorf("unsupported constant type: %T", c)
		}
	case *expr.Expr_CallExpr:
		// timestamp("2006-01-02T15:04:05Z")
		if kind.CallExpr.Function == "timestamp" && len(kind.CallExpr.Args) == 1 {
			raw, ok := kind.CallExpr.Args[0].GetConstExpr().GetConstantKind().(*expr.Constant_StringValue)
			if !ok {
				return nil, fmt.Errorf("timestamp argument must be a string")
			}
			t, err := time.Parse(time.RFC3339Nano, raw.StringValue)
			if err != nil {
				return nil, fmt.Errorf("invalid timestamp format: %s", raw.StringValue)
			}
			return t, nil
		}
		return nil, fmt.Errorf("unsupported function in value position: %s", kind.CallExpr.Function)
	default:
		return nil, fmt.Errorf("expected constant or timestamp, got %T", kind)
	}
}

func compareFilterValues(left, right any) (int, error) {
	switch l := left.(type) {
	case string:
		r, ok := right.(string)
		if !ok {
			return 0, fmt.Errorf("type mismatch: string vs %T", right)
		}
		return strings.Compare(l, r), nil
	case int64:
		r, ok := right.(int64)
		if !ok {
			return 0, fmt.Errorf("type mismatch: int vs %T", right)
		}
		switch {
		case l < r:
			return -1, nil
		case l > r:
			return 1, nil
		}
		return 0, nil
	case time.Time:
		r, ok := right.(time.Time)
		if !ok {
			return 0, fmt.Errorf("type mismatch: timestamp vs %T", right)
		}
		return l.Compare(r), nil
	default:
		return 0, fmt.Errorf("unsupported value type: %T", left)
	}
}
