// Package subtitle holds the subtitle codec tables and container policies
// used by the subtitle stages: which codecs are text or bitmap based, which
// text codec a restrictive container requires, and how tracks are grouped
// into commentary, forced, and main variants.
package subtitle
