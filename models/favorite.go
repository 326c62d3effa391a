package models

// FavoriteEntry is the reduced projection of a CatalogItem kept in a user's favorites.
// Field names match the stored document layout.
type FavoriteEntry struct {
	ID          int64   `json:"id" firestore:"id"`
	Title       string  `json:"title" firestore:"title"`
	PosterPath  string  `json:"poster_path,omitempty" firestore:"poster_path"`
	VoteAverage float64 `json:"vote_average" firestore:"vote_average"`
}

// NewFavoriteEntry projects a catalog item into a favorites entry.
func NewFavoriteEntry(item CatalogItem) FavoriteEntry {
	return FavoriteEntry{
		ID:          item.ID,
		Title:       item.Title,
		PosterPath:  item.PosterPath,
		VoteAverage: item.VoteAverage,
	}
}

// FavoritesDocument is the remote per-user favorites record, keyed by uid.
type FavoritesDocument struct {
	UID       string          `json:"uid" firestore:"-"`
	Favorites []FavoriteEntry `json:"favorites" firestore:"favorites"`
}

// Contains reports whether an entry with the given id is present.
func (d FavoritesDocument) Contains(id int64) bool {
	for _, fav := range d.Favorites {
		if fav.ID == id {
			return true
		}
	}
	return false
}
