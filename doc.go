// Package reshape shapes records between their storage form and their API
// form.
//
// It provides:
//
// - Record, an ordered field mapping with order-preserving JSON and YAML codecs
// - Prune to strip optional fields that carry no value
// - VerifyJSON to reject empty strings, reporting every offending field at once
// - VerifyQuery / VerifyQueryExcept to keep mutually exclusive query fields apart
// - Compose to delete, compute, reorder and deduplicate fields of a new record
// - A stable error model: typed errors matched with errors.Is/As, each with an
// Issues view (JSON Pointer, code, message)
//
// Design policy:
// - Keep only public APIs in the root package; put decoding internals under internal/.
// - Field codecs live under codec/, cross-field rules under rules/, declarative
// pipelines (profiles, logging, metrics, tracing) under shape/, the CLI under cmd/reshape.
// - The functions of this package are pure: no I/O, no logging, no shared state.
//
// Typical usage:
//
//	if err := reshape.VerifyJSON(in, reshape.FieldList("name", "phone"), reshape.NoEmptyString); err != nil {
//		return err
//	}
//	out := reshape.Compose(in, reshape.ComposeOpt{
//		NewFields: reshape.NewFields(
//			reshape.Field("fullName", reshape.At(0, reshape.Refs("firstName", "lastName"))),
//		),
//		Delete: []string{"password"},
//	})
//	out = reshape.Prune(out, "email")
package reshape
