/*
Package errors implements the error taxonomy of swapvault.

Every failure is one of a small set of registered root errors:

	ErrAuthorization    missing signer, wrong owner, address derivation mismatch
	ErrData             wrong data length, wrong type discriminator, undecodable record
	ErrCardinality      wrong number of accounts
	ErrExternalService  any failure reported by a collaborating service

plus a few supporting kinds used by the host runtime and the services.

Create errors with ErrXyz.New("...") or errors.Wrap(err, "...") at the point of
creation so that a stacktrace is attached. Failures returned by a cross service
invocation are marked with External, which keeps the original cause reachable.

Once you have an error, you can use `fmt.Printf/Sprintf` to get more context for the error
	%s is just the error message
	%+v is the full stack trace
	%v appends a compressed [filename:line] where the error was created
*/
package errors
