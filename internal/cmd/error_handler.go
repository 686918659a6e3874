package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/precog/precog-cli/internal/api"
	"github.com/precog/precog-cli/internal/await"
	"github.com/precog/precog-cli/internal/config"
)

// HandleError processes an error and returns a user-friendly message with suggestions
func HandleError(err error) string {
	if err == nil {
		return ""
	}

	var msg strings.Builder

	var clientErr *api.ClientError
	var svcErr *api.ServiceError
	var timeoutErr *await.TimeoutError

	switch {
	case errors.Is(err, config.ErrNotConfigured):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Run: precog auth login --email <email>\n")
		msg.WriteString("  - Or set PRECOG_API_KEY and PRECOG_ACCOUNT_ID\n")

	case errors.As(err, &timeoutErr):
		fmt.Fprintf(&msg, "Error: %s\n\n", err.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Ingest may still be processing; raise --wait-timeout\n")
		msg.WriteString("  - Check the expected value with: precog query --output json\n")

	case errors.As(err, &clientErr):
		fmt.Fprintf(&msg, "Error: %s\n", clientErr.Message)
		for _, d := range clientErr.Details {
			fmt.Fprintf(&msg, "  %s\n", d)
		}
		if s := clientErr.Code.Suggestion(); s != "" {
			fmt.Fprintf(&msg, "\nSuggestions:\n  - %s\n", s)
		}

	case errors.As(err, &svcErr) && svcErr.StatusCode == 0 && svcErr.Err != nil:
		msg.WriteString(transportMessage(svcErr))

	case errors.As(err, &svcErr) && errors.Is(svcErr.Err, api.ErrInvalidBody):
		fmt.Fprintf(&msg, "Invalid response from %s %s (HTTP %d).\n\n", svcErr.Method, svcErr.Path, svcErr.StatusCode)
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify --host and --port point at a Precog API server\n")
		msg.WriteString("  - Use --debug to see the full exchange\n")

	case errors.As(err, &svcErr):
		fmt.Fprintf(&msg, "API error (HTTP %d): %s\n\n", svcErr.StatusCode, apiErrorBody(svcErr))
		msg.WriteString(suggestionsForStatusCode(svcErr.StatusCode))

	default:
		fmt.Fprintf(&msg, "Error: %s\n", err.Error())
	}

	return msg.String()
}

func apiErrorBody(e *api.ServiceError) string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return e.Reason
	}
	if len(body) > 512 {
		return body[:512] + "..."
	}
	return body
}

func transportMessage(e *api.ServiceError) string {
	var msg strings.Builder
	text := e.Err.Error()
	switch {
	case strings.Contains(text, "connection refused"):
		msg.WriteString("Connection refused.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check that the Precog server is running\n")
		msg.WriteString("  - Verify --host and --port: precog auth status\n")
	case strings.Contains(text, "no such host"):
		msg.WriteString("DNS resolution failed.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check the host spelling\n")
		msg.WriteString("  - Verify your DNS settings\n")
	case strings.Contains(text, "certificate"), strings.Contains(text, "tls:"):
		msg.WriteString("TLS error.\n\n")
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Verify the server's certificate\n")
		msg.WriteString("  - Use --tls=false for plain HTTP test servers on ports other than 443\n")
	default:
		fmt.Fprintf(&msg, "Request failed: %s\n\n", e.Error())
		msg.WriteString("Suggestions:\n")
		msg.WriteString("  - Check your network connection\n")
		msg.WriteString("  - Raise --timeout for slow queries\n")
	}
	return msg.String()
}

func suggestionsForStatusCode(code int) string {
	var suggestions strings.Builder
	suggestions.WriteString("Suggestions:\n")

	switch code {
	case 400:
		suggestions.WriteString("  - Check your request parameters\n")
		suggestions.WriteString("  - Use --dry-run to see the request that would be sent\n")
	case 401:
		suggestions.WriteString("  - Your API key or password may be wrong\n")
		suggestions.WriteString("  - Run: precog auth login\n")
	case 403:
		suggestions.WriteString("  - The API key does not grant access to this path\n")
		suggestions.WriteString("  - Check --base-path and --account-id\n")
	case 404:
		suggestions.WriteString("  - The account or path doesn't exist\n")
		suggestions.WriteString("  - Check --account-id and --base-path\n")
	default:
		if code >= 500 {
			suggestions.WriteString("  - Server error, try again later\n")
			suggestions.WriteString("  - Use --debug to see the full exchange\n")
		} else {
			suggestions.WriteString("  - Use --debug for more details\n")
		}
	}

	return suggestions.String()
}
