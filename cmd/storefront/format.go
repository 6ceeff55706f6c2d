package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"egadget-storefront/internal/models"
	"egadget-storefront/internal/services"
)

// peso renders an amount as ₱65,999.00.
func peso(v float64) string {
	s := strconv.FormatFloat(v, 'f', 2, 64)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	whole, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := "₱" + b.String() + "." + frac
	if neg {
		out = "-" + out
	}
	return out
}

func printJSON(w io.Writer, v any) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		_, _ = fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	_, _ = fmt.Fprintln(w, string(out))
	return 0
}

// fail prints err in a form fit for a terminal and returns the exit code.
func fail(stderr io.Writer, err error) int {
	var verr *models.ValidationError
	var apiErr *services.APIError
	switch {
	case errors.As(err, &verr):
		_, _ = fmt.Fprintf(stderr, "Error: %s\n", verr.Error())
	case errors.As(err, &apiErr):
		_, _ = fmt.Fprintf(stderr, "Error: %s (HTTP %d)\n", apiErr.Message, apiErr.Status)
	case errors.Is(err, services.ErrUnauthorized):
		_, _ = fmt.Fprintln(stderr, "Error: your session has expired, please log in again")
	default:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	}
	return 1
}
