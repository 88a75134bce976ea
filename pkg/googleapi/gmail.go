package googleapi

import (
	"context"
	"fmt"
	"sort"

	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	contractx "github.com/ymerta/agentic-assistant-local/agent/contract"
	toolx "github.com/ymerta/agentic-assistant-local/agent/tool"
)

// Mail implements the mail gateway on the Gmail API. A fresh service handle
// is built per call so token refresh failures surface as integration errors
// instead of poisoning a cached client.
type Mail struct {
	auth *Authenticator
}

var _ toolx.MailGateway = (*Mail)(nil)

func NewMail(auth *Authenticator) *Mail {
	return &Mail{auth: auth}
}

func (m *Mail) SearchRecent(ctx context.Context, q toolx.MailQuery) ([]contractx.EmailSummary, error) {
	ts, err := m.auth.TokenSource(ctx)
	if err != nil {
		return nil, err
	}
	svc, err := gmailapi.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("gmail service: %w", err)
	}

	query := fmt.Sprintf("newer_than:%dd -category:promotions -category:social", q.Days)
	if q.ImportantOnly {
		query += " is:important"
	}

	list, err := svc.Users.Messages.List("me").
		Q(query).
		MaxResults(int64(q.Limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("gmail list: %w", err)
	}

	type dated struct {
		summary  contractx.EmailSummary
		internal int64
	}
	out := make([]dated, 0, len(list.Messages))

	for _, ref := range list.Messages {
		msg, err := svc.Users.Messages.Get("me", ref.Id).
			Format("metadata").
			MetadataHeaders("Subject", "From", "Date").
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("gmail get %s: %w", ref.Id, err)
		}

		summary := contractx.EmailSummary{ID: msg.Id, Snippet: msg.Snippet}
		if msg.Payload != nil {
			for _, h := range msg.Payload.Headers {
				switch h.Name {
				case "Subject":
					summary.Subject = h.Value
				case "From":
					summary.From = h.Value
				case "Date":
					summary.Date = h.Value
				}
			}
		}
		out = append(out, dated{summary: summary, internal: msg.InternalDate})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].internal > out[j].internal })

	summaries := make([]contractx.EmailSummary, 0, len(out))
	for _, d := range out {
		summaries = append(summaries, d.summary)
	}
	return summaries, nil
}
