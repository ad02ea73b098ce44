package server

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/aman-zulfiqar/enso-go/pkg/enso"
	"github.com/ethereum/go-ethereum/common"
	"github.com/labstack/echo/v4"
)

// paramError is a rejected query or path parameter.
type paramError struct {
	Field  string
	Reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, reason string) error {
	return &paramError{Field: field, Reason: reason}
}

// splitCSVQuery accepts both repeated keys and comma separated values.
func splitCSVQuery(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}

func parseChainID(field, raw string, required bool) (uint64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return 0, invalid(field, "required")
		}
		return 0, nil
	}
	n, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || n == 0 {
		return 0, invalid(field, "must be a positive integer")
	}
	return n, nil
}

func parseAddress(field, raw string, required bool) (common.Address, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		if required {
			return common.Address{}, invalid(field, "required")
		}
		return common.Address{}, nil
	}
	if !common.IsHexAddress(raw) {
		return common.Address{}, invalid(field, "must be a hex address")
	}
	return common.HexToAddress(raw), nil
}

func queryChainID(c echo.Context, field string, required bool) (uint64, error) {
	return parseChainID(field, c.QueryParam(field), required)
}

func queryAddress(c echo.Context, field string, required bool) (common.Address, error) {
	return parseAddress(field, c.QueryParam(field), required)
}

func queryAddresses(c echo.Context, field string, required bool) ([]common.Address, error) {
	raw := splitCSVQuery(c.QueryParams()[field])
	if len(raw) == 0 {
		if required {
			return nil, invalid(field, "required")
		}
		return nil, nil
	}
	out := make([]common.Address, 0, len(raw))
	for _, r := range raw {
		a, err := parseAddress(field, r, true)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}

// queryAmounts reads integer amounts given in base units.
func queryAmounts(c echo.Context, field string, required bool) ([]string, error) {
	raw := splitCSVQuery(c.QueryParams()[field])
	if len(raw) == 0 && required {
		return nil, invalid(field, "required")
	}
	for _, r := range raw {
		if !isDigits(r) {
			return nil, invalid(field, "must be integers in base units")
		}
	}
	return raw, nil
}

func queryBps(c echo.Context, field string) (string, error) {
	raw := strings.TrimSpace(c.QueryParam(field))
	if raw == "" {
		return "", nil
	}
	n, err := strconv.ParseUint(raw, 10, 16)
	if err != nil || n > 10000 {
		return "", invalid(field, "must be basis points between 0 and 10000")
	}
	return raw, nil
}

func queryBool(c echo.Context, field string) (*bool, error) {
	raw := strings.TrimSpace(c.QueryParam(field))
	if raw == "" {
		return nil, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, invalid(field, "must be boolean")
	}
	return &b, nil
}

func queryInt(c echo.Context, field string) (*int, error) {
	raw := strings.TrimSpace(c.QueryParam(field))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return nil, invalid(field, "must be a non-negative integer")
	}
	return &n, nil
}

func queryFloat(c echo.Context, field string) (*float64, error) {
	raw := strings.TrimSpace(c.QueryParam(field))
	if raw == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, invalid(field, "must be a number")
	}
	return &f, nil
}

func queryStrategy(c echo.Context) (enso.RoutingStrategy, error) {
	raw := strings.TrimSpace(c.QueryParam("routingStrategy"))
	switch s := enso.RoutingStrategy(raw); s {
	case "", enso.RoutingRouter, enso.RoutingDelegate, enso.RoutingRouterLegacy,
		enso.RoutingDelegateLegacy, enso.RoutingEnsoWallet:
		return s, nil
	default:
		return "", invalid("routingStrategy", "unknown strategy")
	}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
