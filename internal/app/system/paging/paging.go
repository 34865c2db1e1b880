// internal/app/system/paging/paging.go
package paging

// DefaultLimit is the number of rows returned when a list query does not
// ask for a specific page size.
//
// Values are returned as int64 because call sites pass them straight to
// Mongo Find().SetLimit() / SetSkip().
const DefaultLimit = 20

// MaxLimit caps the page size a client may request.
const MaxLimit = 100

// Limit clamps an optional client-supplied page size to [1, MaxLimit].
// A nil or non-positive value yields DefaultLimit.
func Limit(requested *int32) int64 {
	if requested == nil || *requested <= 0 {
		return DefaultLimit
	}
	if *requested > MaxLimit {
		return MaxLimit
	}
	return int64(*requested)
}

// Offset normalizes an optional client-supplied offset.
// A nil or negative value yields 0.
func Offset(requested *int32) int64 {
	if requested == nil || *requested < 0 {
		return 0
	}
	return int64(*requested)
}
