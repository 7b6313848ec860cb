package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/pflag"

	"go-timeclock/pkg/client"
)

type command struct {
	summary string
	run     func(ctx context.Context, c *client.Client, args []string, out io.Writer) error
}

var commandOrder = []string{
	"register", "login", "logout", "me", "managers",
	"status", "clock-in", "clock-out", "records", "team", "approve", "reject",
}

var commands = map[string]command{
	"register":  {summary: "create an account under a manager", run: runRegister},
	"login":     {summary: "start a session", run: runLogin},
	"logout":    {summary: "end the session", run: runLogout},
	"me":        {summary: "show the logged-in account", run: runMe},
	"managers":  {summary: "list managers", run: runManagers},
	"status":    {summary: "show whether you are clocked in", run: runStatus},
	"clock-in":  {summary: "open a time record", run: runClockIn},
	"clock-out": {summary: "close the open time record", run: runClockOut},
	"records":   {summary: "list your time records", run: runRecords},
	"team":      {summary: "list your team's time records (managers)", run: runTeam},
	"approve":   {summary: "approve a closed record: approve <id>", run: runApprove},
	"reject":    {summary: "reject a closed record: reject <id> [--note]", run: runReject},
}

func runRegister(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	var req client.RegisterRequest
	var managerID int64

	flagSet := pflag.NewFlagSet("register", pflag.ContinueOnError)
	flagSet.StringVar(&req.Email, "email", "", "account email")
	flagSet.StringVar(&req.Password, "password", "", "password, at least 6 characters")
	flagSet.StringVar(&req.FirstName, "first-name", "", "first name")
	flagSet.StringVar(&req.LastName, "last-name", "", "last name")
	flagSet.StringVar(&req.Role, "role", "", "job title")
	flagSet.BoolVar(&req.IsManager, "manager", false, "register as a manager")
	flagSet.Int64Var(&managerID, "manager-id", 0, "id of the manager to report to (see `managers`)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if managerID > 0 {
		req.ManagerID = &managerID
	}

	account, err := c.Register(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(out, account)
}

func runLogin(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	var email, password string

	flagSet := pflag.NewFlagSet("login", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "account email")
	flagSet.StringVar(&password, "password", "", "password")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if email == "" || password == "" {
		return errors.New("login requires --email and --password")
	}

	account, err := c.Login(ctx, email, password)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "logged in as %s (id %d)\n", account.Email, account.ID)
	return nil
}

func runLogout(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	if err := c.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(out, "logged out")
	return nil
}

func runMe(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	account, err := c.Me(ctx)
	if err != nil {
		return err
	}
	return printJSON(out, account)
}

func runManagers(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	managers, err := c.Managers(ctx)
	if err != nil {
		return err
	}
	for _, m := range managers {
		fmt.Fprintf(out, "%d\t%s\t%s\n", m.ID, m.Name, m.Email)
	}
	return nil
}

func runStatus(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	status, err := c.Status(ctx)
	if err != nil {
		return err
	}
	if !status.ClockedIn || status.ActiveRecord == nil {
		fmt.Fprintln(out, "not clocked in")
		return nil
	}
	fmt.Fprintf(out, "clocked in since %s %s (record %d)\n",
		status.ActiveRecord.Date, status.ActiveRecord.StartTime, status.ActiveRecord.ID)
	return nil
}

func noteFlag(name string, args []string) (string, []string, error) {
	var note string
	flagSet := pflag.NewFlagSet(name, pflag.ContinueOnError)
	flagSet.StringVarP(&note, "note", "n", "", "free-text note")
	if err := flagSet.Parse(args); err != nil {
		return "", nil, err
	}
	return note, flagSet.Args(), nil
}

func runClockIn(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	note, _, err := noteFlag("clock-in", args)
	if err != nil {
		return err
	}
	record, err := c.ClockIn(ctx, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "clocked in at %s (record %d)\n", record.StartTime, record.ID)
	return nil
}

func runClockOut(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	note, _, err := noteFlag("clock-out", args)
	if err != nil {
		return err
	}
	record, err := c.ClockOut(ctx, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "clocked out at %s (record %d, %s-%s)\n", record.EndTime, record.ID, record.StartTime, record.EndTime)
	return nil
}

func runRecords(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	records, err := c.Records(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(out, "%d\t%s\t%s-%s\t%s\n", r.ID, r.Date, r.StartTime, orDash(r.EndTime), r.Status)
	}
	return nil
}

func runTeam(ctx context.Context, c *client.Client, _ []string, out io.Writer) error {
	records, err := c.TeamRecords(ctx)
	if err != nil {
		return err
	}
	for _, r := range records {
		fmt.Fprintf(out, "%d\t%s\t%s\t%s-%s\t%s\n", r.ID, r.EmployeeName, r.Date, r.StartTime, orDash(r.EndTime), r.Status)
	}
	return nil
}

func runApprove(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	id, err := recordID(args)
	if err != nil {
		return err
	}
	record, err := c.Approve(ctx, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "record %d %s\n", record.ID, record.Status)
	return nil
}

func runReject(ctx context.Context, c *client.Client, args []string, out io.Writer) error {
	note, rest, err := noteFlag("reject", args)
	if err != nil {
		return err
	}
	id, err := recordID(rest)
	if err != nil {
		return err
	}
	record, err := c.Reject(ctx, id, note)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "record %d %s\n", record.ID, record.Status)
	return nil
}

func recordID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("expected exactly one record id")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid record id %q", args[0])
	}
	return id, nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
