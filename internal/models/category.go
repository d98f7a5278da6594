package models

// Category is a node of a user's spending-category tree.
//
// The tree is held as (ID, ParentID, Path) tuples only; Path is the
// denormalized "/"-joined chain of ancestor names ending with Name.
// NameKey and ParentKey exist solely to back the sibling-uniqueness index:
// NameKey is the trimmed, lower-cased name and ParentKey is ParentID or ""
// for roots.
type Category struct {
	Base
	UserID    string  `gorm:"type:uuid;not null;uniqueIndex:idx_categories_user_path,priority:1;uniqueIndex:idx_categories_sibling,priority:1" json:"user_id"`
	Name      string  `gorm:"size:50;not null" json:"name"`
	NameKey   string  `gorm:"size:200;not null;uniqueIndex:idx_categories_sibling,priority:3" json:"-"`
	ParentID  *string `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	ParentKey string  `gorm:"size:36;not null;default:'';uniqueIndex:idx_categories_sibling,priority:2" json:"-"`
	Path      string  `gorm:"size:255;not null;uniqueIndex:idx_categories_user_path,priority:2" json:"path"`
}

// IsRoot reports whether the category has no parent.
func (c *Category) IsRoot() bool {
	return c.ParentID == nil || *c.ParentID == ""
}
