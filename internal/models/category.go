package models

// Category is a node of the catalog taxonomy. Level is 0 for roots and
// parent level + 1 otherwise; it is fixed at creation.
type Category struct {
	ID       int    `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Slug     string `db:"slug" json:"slug"`
	IsActive bool   `db:"is_active" json:"isActive"`
	ParentID *int   `db:"parent_id" json:"parentId"`
	Level    int    `db:"level" json:"level"`
}

// CategoryChild is a direct child together with the ids of its own children.
type CategoryChild struct {
	Category
	ChildIDs []int
}

// CategoryWithChildren is a category and its direct children ordered by name.
type CategoryWithChildren struct {
	Category
	Children []CategoryChild
}
