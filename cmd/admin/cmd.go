// AngelaMos | 2026
// cmd.go

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"text/tabwriter"
	"time"

	"github.com/carterperez-dev/mahuru-activation/internal/activity"
	"github.com/carterperez-dev/mahuru-activation/internal/admin"
	"github.com/carterperez-dev/mahuru-activation/internal/character"
	"github.com/carterperez-dev/mahuru-activation/internal/config"
	"github.com/carterperez-dev/mahuru-activation/internal/curriculum"
	"github.com/carterperez-dev/mahuru-activation/internal/docstore"
	"github.com/carterperez-dev/mahuru-activation/internal/profile"
)

var (
	errHelp       = errors.New("help provided")
	errProduction = errors.New("refusing to run against production")
)

type commandLine struct {
	out        io.Writer
	production bool
	admins     *admin.Service
	characters *character.Service
	activities *activity.Service
	profiles   *profile.Service
}

func newCommandLine(store docstore.Store, cfg *config.Config, out io.Writer, logger *slog.Logger) *commandLine {
	characters := character.NewService(store)
	return &commandLine{
		out:        out,
		production: cfg.IsProduction(),
		admins:     admin.NewService(store, admin.NoCache(), cfg.IsAdminEmail, logger),
		characters: characters,
		activities: activity.NewService(store, logger),
		profiles:   profile.NewService(profile.NewRepository(store), characters, logger),
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  seed [-overwrite]                 - load guardians and the 30 day curriculum")
	fmt.Fprintln(w, "  grant-admin -uid UID -email EMAIL - make a user a super admin")
	fmt.Fprintln(w, "  revoke-admin -uid UID             - remove a user's admin record")
	fmt.Fprintln(w, "  list-admins                       - print every admin record")
	fmt.Fprintln(w, "  reset-progress -uid UID           - put a learner back at day one")
}

func (cli *commandLine) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(cli.out)
	return fs
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 1 {
		printUsage(cli.out)
		return errHelp
	}

	switch args[0] {
	case "seed":
		fs := cli.flags("seed")
		overwrite := fs.Bool("overwrite", false, "replace documents that already exist")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		return cli.seed(ctx, *overwrite)

	case "grant-admin":
		fs := cli.flags("grant-admin")
		uid := fs.String("uid", "", "the user's id")
		email := fs.String("email", "", "the user's email")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *uid == "" || *email == "" {
			fs.Usage()
			return errHelp
		}
		return cli.grantAdmin(ctx, *uid, *email)

	case "revoke-admin":
		fs := cli.flags("revoke-admin")
		uid := fs.String("uid", "", "the user's id")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *uid == "" {
			fs.Usage()
			return errHelp
		}
		return cli.revokeAdmin(ctx, *uid)

	case "list-admins":
		return cli.listAdmins(ctx)

	case "reset-progress":
		fs := cli.flags("reset-progress")
		uid := fs.String("uid", "", "the learner's id")
		if err := fs.Parse(args[1:]); err != nil {
			return errHelp
		}
		if *uid == "" {
			fs.Usage()
			return errHelp
		}
		return cli.resetProgress(ctx, *uid)

	default:
		printUsage(cli.out)
		return errHelp
	}
}

func (cli *commandLine) seed(ctx context.Context, overwrite bool) error {
	chars, err := cli.characters.Seed(ctx, curriculum.Characters(), overwrite)
	if err != nil {
		return fmt.Errorf("seed characters: %w", err)
	}

	days, err := cli.activities.Seed(ctx, curriculum.Activities(), overwrite)
	if err != nil {
		return fmt.Errorf("seed activities: %w", err)
	}

	fmt.Fprintf(cli.out, "seeded %d characters and %d activities\n", chars, days)
	return nil
}

func (cli *commandLine) grantAdmin(ctx context.Context, uid, email string) error {
	a, err := cli.admins.Grant(ctx, uid, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "granted %s to %s (%s)\n", a.Role, a.Email, a.UID)
	return nil
}

func (cli *commandLine) revokeAdmin(ctx context.Context, uid string) error {
	if err := cli.admins.Revoke(ctx, uid); err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "revoked admin access for %s\n", uid)
	return nil
}

func (cli *commandLine) listAdmins(ctx context.Context) error {
	admins, err := cli.admins.List(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tEMAIL\tROLE\tLAST LOGIN")
	for _, a := range admins {
		last := "never"
		if a.LastLogin != nil {
			last = a.LastLogin.Format(time.RFC3339)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.UID, a.Email, a.Role, last)
	}
	return tw.Flush()
}

func (cli *commandLine) resetProgress(ctx context.Context, uid string) error {
	if cli.production {
		return fmt.Errorf("reset-progress: %w", errProduction)
	}

	u, err := cli.profiles.ResetProgress(ctx, uid)
	if err != nil {
		return fmt.Errorf("reset-progress: %w", err)
	}

	removed, err := cli.activities.DeleteProgress(ctx, uid)
	if err != nil {
		return fmt.Errorf("reset-progress: %w", err)
	}

	fmt.Fprintf(cli.out, "reset %s to day %d, removed %d completion records\n", u.ID, u.CurrentDay, removed)
	return nil
}
