// Package mailing implements the admin-driven broadcast pipeline.
//
// One mailing is a short conversation with an administrator: collect the
// post content (text, a single media item, or a media group assembled
// from an upload burst), optionally attach an interactive button, show a
// preview, and on confirmation fan the post out to every known recipient.
//
// # Sessions
//
// Manager keeps at most one session per administrator, modeled as an
// explicit Phase enumeration rather than independent waiting flags, so
// contradictory states cannot be expressed. Sessions live purely in
// memory; a restart drops them, which is accepted.
//
// # Media groups
//
// Telegram delivers album items as individual updates with a shared group
// id and no completion marker. Aggregator debounces them: each item
// re-arms a quiet-period timer, and the batch is finalized only when the
// burst goes silent. A newer group from the same admin supersedes the
// previous window.
//
// # Dispatch
//
// Dispatcher snapshots the recipient list once, then performs one
// rate-limited send attempt per recipient. Failures are isolated and
// classified (blocked/unreachable vs other) into a DeliveryReport; there
// are no retries and no mid-run cancellation.
package mailing
