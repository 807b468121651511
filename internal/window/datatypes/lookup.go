package datatypes

// LookupValue is a resolved reference to a row of another entity: the raw
// key plus the display caption the UI shows.
type LookupValue struct {
	ID      int
	Caption string
}

func NewLookupValue(id int, caption string) LookupValue {
	return LookupValue{ID: id, Caption: caption}
}
