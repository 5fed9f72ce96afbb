package cache

// ListID marks the tag that covers the collection of an entity type.
const ListID = "LIST"

// Tag labels cached data by entity type and optional id.
type Tag struct {
	Type string
	ID   string
}

func TypeTag(tagType string) Tag {
	return Tag{Type: tagType}
}

func IDTag(tagType, id string) Tag {
	return Tag{Type: tagType, ID: id}
}

func ListTag(tagType string) Tag {
	return Tag{Type: tagType, ID: ListID}
}

// Matches reports whether invalidating t affects data provided under other.
// A tag without an id matches every tag of its type.
func (t Tag) Matches(other Tag) bool {
	if t.Type != other.Type {
		return false
	}
	return t.ID == "" || t.ID == other.ID
}

func (t Tag) String() string {
	if t.ID == "" {
		return t.Type
	}
	return t.Type + ":" + t.ID
}
