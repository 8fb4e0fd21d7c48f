package models

// All returns every model that needs a table, in migration order.
func All() []interface{} {
	return []interface{}{&User{}, &Post{}, &PostTag{}, &Comment{}, &Follow{}, &Favorite{}}
}
