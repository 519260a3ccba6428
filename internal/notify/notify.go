package notify

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"log/slog"

	"github.com/wneessen/go-mail"

	"github.com/piwi3910/CargoLoad/internal/config"
	"github.com/piwi3910/CargoLoad/internal/model"
)

// Notifier tells a recipient that a queued run has finished.
type Notifier interface {
	NotifyRun(ctx context.Context, to string, run model.Run) error
}

var runTemplate = template.Must(template.New("run").Parse(`<h2>CargoLoad run {{.ID}}</h2>
<p>Problem <b>{{.ProblemID}}</b> with group improvement <b>{{.Improvement}}</b> finished with status <b>{{.Status}}</b>.</p>
{{if .Error}}<p>Error: {{.Error}}</p>{{else}}<table>
<tr><td>Best value</td><td>{{printf "%.2f" .BestValue}}</td></tr>
<tr><td>Occupancy</td><td>{{printf "%.2f" .Occupancy}}</td></tr>
<tr><td>Boxes</td><td>{{.Boxes}}</td></tr>
<tr><td>Generations</td><td>{{.Generations}}</td></tr>
<tr><td>Duration</td><td>{{printf "%.2f" .Duration}} s</td></tr>
</table>{{if .Interrupted}}<p>The run was interrupted before a stop condition was reached.</p>{{end}}{{end}}
`))

// MailNotifier sends run notifications over SMTP.
type MailNotifier struct {
	client *mail.Client
	from   string
}

// NewMailNotifier creates an SMTP client with implicit TLS and plain auth.
func NewMailNotifier(cfg *config.Config) (*MailNotifier, error) {
	client, err := mail.NewClient(cfg.SMTP.Host,
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithSSL(),
		mail.WithPort(cfg.SMTP.Port),
		mail.WithUsername(cfg.SMTP.Username),
		mail.WithPassword(cfg.SMTP.Password),
		mail.WithTimeout(config.Seconds(cfg.SMTP.DialTimeout)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create mail client: %w", err)
	}
	return &MailNotifier{client: client, from: cfg.SMTP.From}, nil
}

func (n *MailNotifier) NotifyRun(ctx context.Context, to string, run model.Run) error {
	msg, err := buildMessage(n.from, to, run)
	if err != nil {
		return err
	}
	if err := n.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("failed to send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to string, run model.Run) (*mail.Msg, error) {
	msg := mail.NewMsg(mail.WithEncoding(mail.NoEncoding))
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("failed to set sender: %w", err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("failed to set recipient: %w", err)
	}
	msg.Subject(fmt.Sprintf("CargoLoad run %s %s", run.ProblemID, run.Status))
	if err := msg.SetBodyHTMLTemplate(runTemplate, run); err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}
	return msg, nil
}

// LogNotifier writes notifications to a logger. It is used when SMTP is not configured.
type LogNotifier struct {
	logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) NotifyRun(ctx context.Context, to string, run model.Run) error {
	n.logger.Info("run notification",
		"to", to,
		"run", run.ID,
		"problem", run.ProblemID,
		"status", string(run.Status),
		"best_value", run.BestValue)
	return nil
}
