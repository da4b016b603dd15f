// Package controller drives a questionnaire run.
//
// The controller owns the current position within the active step list and
// the mounted step resolved for it. A Next press becomes a SubmitRequest to
// the mounted step; the step replies Submitted or Rejected and never writes
// to the store itself. On Submitted the controller merges the returned data,
// flags the section complete, re-derives the step list from the (possibly
// changed) selections and moves on. On Rejected the position and the store are
// left alone and the field errors go back to the frontend.
//
// Two paths skip validation, both governed by Policy and both journaled at
// WARN:
//
//   - escape hatch: a second Next on the same step inside the double
//     activation window forces the move even though the step rejected;
//   - missing contract: a catalog step with no registered implementation is
//     skipped (force) or held (block).
//
// When the list shrinks under the current position the position clamps to
// the new last step. Advancing past the last step finalizes the run: the
// snapshot is written to the logbook, the store is reset and the position
// returns to the first step.
package controller
