package tool

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
)

const ToolSearchEmails = "search_emails"

const (
	defaultMailDays  = 7
	defaultMailLimit = 10
	maxMailLimit     = 50
)

func searchEmailsParams() map[string]*schema.ParameterInfo {
	return map[string]*schema.ParameterInfo{
		"days": {
			Type:     schema.Integer,
			Desc:     "How many days back to search",
			Required: true,
		},
		"importantOnly": {
			Type: schema.Boolean,
			Desc: "Restrict to messages Gmail marked important",
		},
		"limit": {
			Type: schema.Integer,
			Desc: "Maximum number of messages to return",
		},
	}
}

func searchEmailsExecutor(mail MailGateway) Executor {
	return func(ctx context.Context, args map[string]any) (any, error) {
		days, err := intArg(args, "days", defaultMailDays)
		if err != nil {
			return nil, err
		}
		if days <= 0 {
			return nil, fmt.Errorf("%w: days must be positive, got %d", contractx.ErrValidation, days)
		}

		limit, err := intArg(args, "limit", defaultMailLimit)
		if err != nil {
			return nil, err
		}
		if limit <= 0 || limit > maxMailLimit {
			limit = defaultMailLimit
		}

		importantOnly, err := boolArg(args, "importantOnly", false)
		if err != nil {
			return nil, err
		}

		emails, err := mail.SearchRecent(ctx, MailQuery{
			Days:          days,
			Limit:         limit,
			ImportantOnly: importantOnly,
		})
		if err != nil {
			return nil, err
		}
		return emails, nil
	}
}
