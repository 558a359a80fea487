// Command loanctl is an operator CLI for the employee loan API.
//
//	loanctl [global flags] <command> [flags]
//
// The bearer token comes from -token or LOANCTL_TOKEN. With -secret (or
// LOANCTL_JWT_SECRET) loanctl mints a short-lived token itself, which is only
// meant for development servers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"hr-loanengine/internal/adapters/clients"
	"hr-loanengine/internal/adapters/http/dto"
	"hr-loanengine/internal/core/domain"
	"hr-loanengine/internal/core/services"
	"hr-loanengine/internal/pkg/jwt"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const usage = `usage: loanctl [global flags] <command> [flags]

commands:
  preview      -employee ID -principal N -rate N -installments N [-frequency F] [-start YYYY-MM-DD]
  create       same flags as preview, plus -description TEXT
  get          -id LOAN
  list         [-status S] [-employee ID] [-page N] [-limit N]
  approve      -id LOAN
  reject       -id LOAN -reason TEXT
  cancel       -id LOAN
  schedule     -id LOAN
  history      -id LOAN
  pay          -entry SCHEDULE_ID -amount N [-key IDEMPOTENCY_KEY]
  portfolio    -employee ID
  eligibility  -employee ID -amount N
  stats
`

type options struct {
	url     string
	token   string
	secret  string
	user    string
	role    string
	timeout time.Duration
}

func main() {
	_ = godotenv.Load()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		var apiErr *clients.APIError
		entry := logrus.WithError(err)
		if errors.As(err, &apiErr) {
			entry = entry.WithField("status", apiErr.StatusCode)
		}
		if errors.Is(err, domain.ErrTransport) {
			entry.Error("request outcome unknown, check the loan before retrying")
		} else {
			entry.Error("command failed")
		}
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var opts options
	global := flag.NewFlagSet("loanctl", flag.ContinueOnError)
	global.SetOutput(out)
	global.Usage = func() { fmt.Fprint(out, usage) }
	global.StringVar(&opts.url, "url", envOr("LOANCTL_URL", "http://localhost:3000/api/v1"), "API base URL")
	global.StringVar(&opts.token, "token", os.Getenv("LOANCTL_TOKEN"), "bearer token")
	global.StringVar(&opts.secret, "secret", os.Getenv("LOANCTL_JWT_SECRET"), "JWT secret used to mint a token")
	global.StringVar(&opts.user, "user", envOr("LOANCTL_USER", "loanctl"), "username for minted tokens")
	global.StringVar(&opts.role, "role", jwt.RoleOfficer, "role for minted tokens")
	global.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")
	if err := global.Parse(args); err != nil {
		return err
	}
	if global.NArg() == 0 {
		global.Usage()
		return errors.New("missing command")
	}

	token, err := opts.bearer()
	if err != nil {
		return err
	}
	client := clients.NewLoanClient(opts.url, token, opts.timeout)
	return dispatch(ctx, client, global.Arg(0), global.Args()[1:], out)
}

// bearer returns the configured token or mints one from the secret
func (o options) bearer() (string, error) {
	if o.token != "" {
		return o.token, nil
	}
	if o.secret == "" {
		return "", errors.New("set -token or -secret (LOANCTL_TOKEN / LOANCTL_JWT_SECRET)")
	}
	return jwt.GenerateAccessToken(jwt.Identity{
		UserID:   o.user,
		Username: o.user,
		Role:     strings.ToUpper(o.role),
	}, o.secret, "", 15*time.Minute)
}

func dispatch(ctx context.Context, client *clients.LoanClient, cmd string, args []string, out io.Writer) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(out)

	switch cmd {
	case "preview", "create":
		in := loanFlags(fs)
		if err := fs.Parse(args); err != nil {
			return err
		}
		input, err := in.input()
		if err != nil {
			return err
		}
		if cmd == "preview" {
			draft, err := client.Preview(ctx, input)
			if err != nil {
				return err
			}
			return printJSON(out, draft)
		}
		loan, err := client.Create(ctx, input)
		if err != nil {
			return err
		}
		return printJSON(out, loan)

	case "get", "approve", "cancel", "schedule", "history":
		id := fs.String("id", "", "loan ID")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" {
			return errors.New("-id is required")
		}
		return loanCommand(ctx, client, cmd, *id, out)

	case "reject":
		id := fs.String("id", "", "loan ID")
		reason := fs.String("reason", "", "rejection reason")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *id == "" || strings.TrimSpace(*reason) == "" {
			return errors.New("-id and -reason are required")
		}
		loan, err := client.Reject(ctx, *id, *reason)
		if err != nil {
			return err
		}
		return printJSON(out, loan)

	case "list":
		status := fs.String("status", "", "status filter")
		employee := fs.String("employee", "", "employee filter")
		page := fs.Int("page", 1, "page number")
		limit := fs.Int("limit", 20, "items per page")
		if err := fs.Parse(args); err != nil {
			return err
		}
		loans, meta, err := client.List(ctx, domain.LoanStatus(strings.ToUpper(*status)), *employee, *page, *limit)
		if err != nil {
			return err
		}
		printLoans(out, loans)
		if meta != nil {
			fmt.Fprintf(out, "page %d of %d, %d loans\n", meta.Page, meta.TotalPages, meta.Total)
		}
		return nil

	case "pay":
		entry := fs.String("entry", "", "schedule entry ID")
		amount := fs.String("amount", "", "amount paid")
		key := fs.String("key", "", "idempotency key; generated when empty")
		if err := fs.Parse(args); err != nil {
			return err
		}
		value, err := decimal.NewFromString(*amount)
		if *entry == "" || err != nil {
			return errors.New("-entry and a numeric -amount are required")
		}
		if *key == "" {
			*key = uuid.NewString()
			fmt.Fprintf(out, "idempotency key %s\n", *key)
		}
		result, err := client.Pay(ctx, *entry, value, *key)
		if err != nil {
			return err
		}
		return printJSON(out, result)

	case "portfolio", "eligibility":
		employee := fs.String("employee", "", "employee ID")
		amount := fs.String("amount", "", "requested amount")
		if err := fs.Parse(args); err != nil {
			return err
		}
		if *employee == "" {
			return errors.New("-employee is required")
		}
		if cmd == "portfolio" {
			portfolio, err := client.Portfolio(ctx, *employee)
			if err != nil {
				return err
			}
			return printJSON(out, portfolio)
		}
		value, err := decimal.NewFromString(*amount)
		if err != nil {
			return errors.New("a numeric -amount is required")
		}
		result, err := client.Eligibility(ctx, *employee, value)
		if err != nil {
			return err
		}
		return printJSON(out, result)

	case "stats":
		stats, err := client.Statistics(ctx)
		if err != nil {
			return err
		}
		return printJSON(out, stats)

	default:
		fmt.Fprint(out, usage)
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func loanCommand(ctx context.Context, client *clients.LoanClient, cmd, id string, out io.Writer) error {
	switch cmd {
	case "get":
		loan, err := client.Get(ctx, id)
		if err != nil {
			return err
		}
		if err := printJSON(out, loan.LoanResponse); err != nil {
			return err
		}
		printSchedule(out, loan.Schedule)
		return nil
	case "approve":
		loan, err := client.Approve(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, loan)
	case "cancel":
		loan, err := client.Cancel(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, loan)
	case "schedule":
		entries, err := client.Schedule(ctx, id)
		if err != nil {
			return err
		}
		printSchedule(out, entries)
		return nil
	default:
		history, err := client.History(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(out, history)
	}
}

type loanArgs struct {
	employee     *string
	principal    *string
	rate         *string
	installments *int
	frequency    *string
	start        *string
	description  *string
}

func loanFlags(fs *flag.FlagSet) loanArgs {
	return loanArgs{
		employee:     fs.String("employee", "", "employee ID"),
		principal:    fs.String("principal", "", "loan principal"),
		rate:         fs.String("rate", "0", "annual interest rate percent"),
		installments: fs.Int("installments", 12, "number of installments"),
		frequency:    fs.String("frequency", string(domain.FrequencyMonthly), "MONTHLY or WEEKLY"),
		start:        fs.String("start", firstOfNextMonth(time.Now()), "first due date, YYYY-MM-DD"),
		description:  fs.String("description", "", "loan purpose"),
	}
}

func (a loanArgs) input() (services.LoanInput, error) {
	principal, err := decimal.NewFromString(*a.principal)
	if err != nil {
		return services.LoanInput{}, errors.New("a numeric -principal is required")
	}
	rate, err := decimal.NewFromString(*a.rate)
	if err != nil {
		return services.LoanInput{}, errors.New("-rate must be numeric")
	}
	return services.LoanInput{
		EmployeeID:                *a.employee,
		Principal:                 principal,
		AnnualInterestRatePercent: rate,
		Frequency:                 strings.ToUpper(*a.frequency),
		TotalInstallments:         *a.installments,
		StartDate:                 *a.start,
		Description:               *a.description,
	}, nil
}

func firstOfNextMonth(now time.Time) string {
	return time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC).Format(dto.DateLayout)
}

func printJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printLoans(out io.Writer, loans []dto.LoanResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tEMPLOYEE\tPRINCIPAL\tINSTALLMENT\tPAID\tREMAINING\tSTATUS")
	for _, l := range loans {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			l.ID, l.EmployeeID, l.Principal.StringFixed(2), l.InstallmentAmount.StringFixed(2),
			l.PaidInstallments, l.TotalInstallments, l.RemainingBalance.StringFixed(2), l.Status)
	}
	w.Flush()
}

func printSchedule(out io.Writer, entries []dto.ScheduleEntryResponse) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "#\tDUE\tAMOUNT\tOUTSTANDING\tSTATUS\tID")
	for _, e := range entries {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			e.InstallmentNumber, e.DueDate, e.ScheduledAmount.StringFixed(2), e.Outstanding.StringFixed(2), e.Status, e.ID)
	}
	w.Flush()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
