// Package segment implements segment lifecycle and audience resolution.
//
// Dynamic segments store a rule tree and are materialized on demand by the
// segmentation engine; static segments store an explicit member list. Both
// kinds resolve to a flat set of lowercase email addresses, and campaigns
// combine several of them through ResolveAudience.
//
// Membership mutation and refresh for a segment are serialized through a
// per-segment distributed lock so concurrent requests cannot interleave
// their read-modify-write of the stored contact count.
package segment
