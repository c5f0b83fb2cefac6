package cli

import (
	"errors"

	"github.com/kirinyoku/sunset-go/internal/repository"
	"github.com/kirinyoku/sunset-go/internal/service/credentials"
	"github.com/kirinyoku/sunset-go/internal/service/eventcfg"
	"github.com/kirinyoku/sunset-go/internal/service/ledger"
	"github.com/kirinyoku/sunset-go/internal/service/session"
)

// domainErrors maps service errors to their output code and message. All of
// them exit with ExitFailure.
var domainErrors = []struct {
	err     error
	code    string
	message string
}{
	{credentials.ErrInvalidEmail, "invalid_email", "invalid email address"},
	{credentials.ErrWeakPassword, "weak_password", "password must have at least 6 characters"},
	{credentials.ErrEmailTaken, "email_taken", "this email is already registered"},
	{credentials.ErrUserNotFound, "user_not_found", "user not found"},
	{credentials.ErrWrongPassword, "wrong_password", "wrong password"},
	{session.ErrNotAuthenticated, "not_authenticated", "log in first"},
	{session.ErrForbidden, "forbidden", "access restricted to administrators"},
	{eventcfg.ErrIndexOutOfRange, "index_out_of_range", "no program item at that index"},
	{eventcfg.ErrInvalidConfig, "invalid_config", "invalid event configuration"},
	{ledger.ErrTicketNotFound, "ticket_not_found", "ticket not found"},
	{ledger.ErrEmptyCode, "empty_code", "enter a ticket code"},
	{ledger.ErrInvalidPurchase, "invalid_purchase", "invalid purchase"},
	{ledger.ErrDuplicateTicket, "duplicate_ticket", "ticket id already in the ledger"},
	{repository.ErrCorruptRecord, "corrupt_record", "a stored record could not be read"},
}

// fail reports err and returns the ExitError for it. Service errors exit
// with ExitFailure; anything else is a command error.
func fail(f *OutputFormatter, err error) error {
	for _, d := range domainErrors {
		if errors.Is(err, d.err) {
			f.VerboseLog("%v", err)
			_ = f.Error(d.code, d.message)
			return WrapExitError(ExitFailure, d.message, err)
		}
	}

	_ = f.Error("internal", err.Error())
	return WrapExitError(ExitCommandError, "command failed", err)
}

// usage reports a bad argument.
func usage(f *OutputFormatter, message string) error {
	_ = f.Error("usage", message)
	return NewExitError(ExitCommandError, message)
}
