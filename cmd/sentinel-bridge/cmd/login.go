package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/asavelyev/sentinel-bridge/internal/auth"
	domain "github.com/asavelyev/sentinel-bridge/internal/domain/alarm"
	"github.com/asavelyev/sentinel-bridge/internal/service/panel"
)

// loginCmd performs the interactive login, including the OTP device
// authorization dance when the account demands it.
var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and authorize this device if needed.",
	Long: `Logs in with the configured credentials and persists the session.

Accounts with device authorization enabled receive a one-time code by SMS:
the command lists the available phones, asks which one to use, sends the
code and prompts for it. Once verified, the session is persisted and the
serve command can run unattended until the session expires.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
		defer stop()

		service, _, err := panel.Bootstrap(configPath)
		if err != nil {
			return err
		}

		defer func() {
			_ = service.Close()
		}()

		return runLogin(ctx, service.Auth(), cmd.InOrStdin(), cmd.OutOrStdout())
	},
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	rootCmd.AddCommand(loginCmd)
}

// runLogin drives the state machine from the terminal.
func runLogin(ctx context.Context, manager *auth.Manager, in io.Reader, out io.Writer) error {
	state, err := manager.Login(ctx)
	if err != nil {
		return err
	}

	if state == auth.StateAuthenticated {
		fmt.Fprintln(out, "Logged in, session persisted.")

		return nil
	}

	// Device authorization: pick a phone, send the code, verify it.
	reader := bufio.NewReader(in)

	if err = selectPhone(manager, reader, out); err != nil {
		return err
	}

	if err = manager.SendCode(ctx); err != nil {
		return err
	}

	fmt.Fprint(out, "Code sent. Enter the received code: ")

	code, err := readLine(reader)
	if err != nil {
		return err
	}

	if err = manager.VerifyOTP(ctx, code); err != nil {
		return err
	}

	fmt.Fprintln(out, "Device authorized, session persisted.")

	return nil
}

// selectPhone lists the challenge phones and asks until a valid id is given.
func selectPhone(manager *auth.Manager, reader *bufio.Reader, out io.Writer) error {
	phones := manager.AvailablePhones()
	if len(phones) == 0 {
		return domain.ErrOTPChallengeMissing
	}

	fmt.Fprintln(out, "Device authorization required. Available phones:")

	for _, phone := range phones {
		fmt.Fprintf(out, "  [%d] %s\n", phone.ID, phone.Number)
	}

	for {
		fmt.Fprint(out, "Phone id: ")

		answer, err := readLine(reader)
		if err != nil {
			return err
		}

		id, err := strconv.Atoi(answer)
		if err != nil {
			fmt.Fprintf(out, "Not a number: %q\n", answer)

			continue
		}

		ok, err := manager.SelectPhone(id)
		if ok {
			return nil
		}

		if errors.Is(err, domain.ErrInvalidPhoneSelection) {
			fmt.Fprintf(out, "No phone with id %d, try again.\n", id)

			continue
		}

		return err
	}
}

// readLine reads one trimmed line from the terminal.
func readLine(reader *bufio.Reader) (string, error) {
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read input: %w", err)
	}

	return strings.TrimSpace(line), nil
}
