package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwalk/internal/client/models"
	"github.com/dmitrijs2005/gophwalk/internal/common"
	"github.com/spf13/cobra"
)

// errExit ends the REPL.
var errExit = errors.New("exit")

// newRootCommand builds the command tree for one REPL line. A fresh tree per
// line keeps flag values from leaking between commands.
func newRootCommand(a *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "gophwalk",
		Short:         "gophwalk session shell",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(a.out)
	root.SetErr(a.out)

	root.AddCommand(
		simpleCommand("guest", "Start a fresh guest session (wipes cached data)", a.enterGuest),
		simpleCommand("leave-guest", "End the guest session", a.exitGuest),
		simpleCommand("register", "Create an account and sign in", a.register),
		simpleCommand("login", "Sign in", a.login),
		simpleCommand("logout", "Sign out and wipe cached data", a.logout),
		simpleCommand("delete-account", "Delete the signed-in account from this device", a.deleteAccount),
		simpleCommand("reset", "Forget every account on this device", a.resetDevice),
		simpleCommand("whoami", "Show the current session", a.whoami),
		simpleCommand("accounts", "List the identities stored on this device", a.accounts),
		newProfileCommand(a),
		newDataCommand(a),
		&cobra.Command{
			Use:     "exit",
			Aliases: []string{"quit"},
			Short:   "Leave the shell",
			Args:    cobra.NoArgs,
			RunE:    func(*cobra.Command, []string) error { return errExit },
		},
	)
	return root
}

func simpleCommand(use, short string, run func(ctx context.Context) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context())
		},
	}
}

func newProfileCommand(a *App) *cobra.Command {
	var first, last string

	cmd := &cobra.Command{
		Use:   "profile [bio...]",
		Short: "Update the profile of the signed-in account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch models.ProfilePatch
			if cmd.Flags().Changed("first") {
				patch.FirstName = &first
			}
			if cmd.Flags().Changed("last") {
				patch.LastName = &last
			}
			if len(args) > 0 {
				bio := strings.Join(args, " ")
				patch.Bio = &bio
			}
			return a.updateProfile(cmd.Context(), patch)
		},
	}
	cmd.Flags().StringVar(&first, "first", "", "first name")
	cmd.Flags().StringVar(&last, "last", "", "last name")
	return cmd
}

func newDataCommand(a *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "data",
		Short: "Read or write cached data of the current session",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "get <kind>",
			Short: "Print a cached value",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.dataGet(cmd.Context(), models.DataKind(args[0]))
			},
		},
		&cobra.Command{
			Use:   "put <kind> <value...>",
			Short: "Store a cached value",
			Args:  cobra.MinimumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return a.dataPut(cmd.Context(), models.DataKind(args[0]), strings.Join(args[1:], " "))
			},
		},
	)
	return cmd
}

func (a *App) enterGuest(ctx context.Context) error {
	if a.session.Current().IsAuthenticated() {
		ok, err := Confirm(a.reader, "Guest mode wipes all cached data on this device. Continue?", a.out)
		if err != nil || !ok {
			return err
		}
	}
	_, err := a.session.EnterGuest(ctx)
	return err
}

func (a *App) exitGuest(ctx context.Context) error {
	_, err := a.session.ExitGuest(ctx)
	return err
}

func (a *App) register(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	first, err := GetSimpleText(a.reader, "First name (optional)", a.out)
	if err != nil {
		return err
	}
	last, err := GetSimpleText(a.reader, "Last name (optional)", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	state, err := a.session.SignUp(ctx, email, password, first, last)
	if err != nil {
		return err
	}
	a.reportOrigin(state)
	return nil
}

func (a *App) login(ctx context.Context) error {
	email, err := GetSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := GetPassword(a.reader, a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	state, err := a.session.SignIn(ctx, email, password)
	if err != nil {
		return err
	}
	a.reportOrigin(state)
	return nil
}

func (a *App) reportOrigin(state models.SessionState) {
	if state.Origin == models.OriginLocal {
		fmt.Fprintln(a.out, "Server unreachable: signed in with the identity stored on this device.")
	}
}

func (a *App) logout(ctx context.Context) error {
	_, err := a.session.SignOut(ctx)
	return err
}

func (a *App) deleteAccount(ctx context.Context) error {
	state := a.session.Current()
	if !state.IsAuthenticated() {
		return fmt.Errorf("delete account: %w", common.ErrInvalidTransition)
	}
	ok, err := Confirm(a.reader, fmt.Sprintf("Delete %s and all its data from this device?", state.User.Email), a.out)
	if err != nil || !ok {
		return err
	}
	_, err = a.session.DeleteAccount(ctx)
	return err
}

func (a *App) resetDevice(ctx context.Context) error {
	ok, err := Confirm(a.reader, "Forget every account and all cached data on this device?", a.out)
	if err != nil || !ok {
		return err
	}
	_, err = a.session.ResetDevice(ctx)
	return err
}

func (a *App) whoami(ctx context.Context) error {
	state := a.session.Current()
	switch state.Variant {
	case models.VariantGuest:
		fmt.Fprintf(a.out, "guest %s\n", state.GuestID)
	case models.VariantAuthenticated:
		u := state.User
		fmt.Fprintf(a.out, "%s (%s) id=%s via %s\n", u.Email, strings.TrimSpace(u.FirstName+" "+u.LastName), u.ID, state.Origin)
		if u.Bio != nil {
			fmt.Fprintf(a.out, "bio: %s\n", *u.Bio)
		}
	default:
		fmt.Fprintln(a.out, "not signed in")
	}
	return nil
}

func (a *App) accounts(ctx context.Context) error {
	list := a.session.ListIdentities(ctx)
	if len(list) == 0 {
		fmt.Fprintln(a.out, "no identities stored on this device")
		return nil
	}
	active := a.session.Current().UserID()
	for _, u := range list {
		marker := " "
		if u.ID == active {
			marker = "*"
		}
		fmt.Fprintf(a.out, "%s %s id=%s\n", marker, u.Email, u.ID)
	}
	return nil
}

func (a *App) updateProfile(ctx context.Context, patch models.ProfilePatch) error {
	_, err := a.session.UpdateProfile(ctx, patch)
	return err
}

func (a *App) dataGet(ctx context.Context, kind models.DataKind) error {
	value, err := a.session.Cache().Get(ctx, kind)
	if err != nil {
		return err
	}
	if len(value) == 0 {
		fmt.Fprintf(a.out, "%s: (empty)\n", kind)
		return nil
	}
	fmt.Fprintf(a.out, "%s: %s\n", kind, value)
	return nil
}

func (a *App) dataPut(ctx context.Context, kind models.DataKind, value string) error {
	return a.session.Cache().Put(ctx, kind, []byte(value))
}
