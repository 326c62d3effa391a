package docstore

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"streamfront/models"
)

const favoritesField = "favorites"

// Firestore stores documents at <collection>/<uid> with a favorites array.
// Set operations map to ArrayUnion and ArrayRemove.
type Firestore struct {
	client     *firestore.Client
	collection string
}

// NewFirestore connects to projectID. An empty credentialsFile falls back to
// application default credentials.
func NewFirestore(ctx context.Context, projectID, credentialsFile, collection string) (*Firestore, error) {
	if strings.TrimSpace(projectID) == "" {
		return nil, fmt.Errorf("firestore project id is required")
	}
	if collection == "" {
		collection = "users"
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("create firestore client: %w", err)
	}
	return &Firestore{client: client, collection: collection}, nil
}

func (f *Firestore) doc(uid string) *firestore.DocumentRef {
	return f.client.Collection(f.collection).Doc(uid)
}

func (f *Firestore) Get(ctx context.Context, uid string) (models.FavoritesDocument, error) {
	snap, err := f.doc(uid).Get(ctx)
	if err != nil {
		return models.FavoritesDocument{}, translate("get", err)
	}

	var doc models.FavoritesDocument
	if err := snap.DataTo(&doc); err != nil {
		return models.FavoritesDocument{}, fmt.Errorf("decode favorites document: %w", err)
	}
	doc.UID = uid
	if doc.Favorites == nil {
		doc.Favorites = []models.FavoriteEntry{}
	}
	return doc, nil
}

func (f *Firestore) Create(ctx context.Context, uid string) error {
	_, err := f.doc(uid).Create(ctx, map[string]any{favoritesField: []any{}})
	if status.Code(err) == codes.AlreadyExists {
		return nil
	}
	if err != nil {
		return translate("create", err)
	}
	return nil
}

func (f *Firestore) AddToSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	_, err := f.doc(uid).Update(ctx, []firestore.Update{
		{Path: favoritesField, Value: firestore.ArrayUnion(entry)},
	})
	if err != nil {
		return translate("array union", err)
	}
	return nil
}

func (f *Firestore) RemoveFromSet(ctx context.Context, uid string, entry models.FavoriteEntry) error {
	_, err := f.doc(uid).Update(ctx, []firestore.Update{
		{Path: favoritesField, Value: firestore.ArrayRemove(entry)},
	})
	if err != nil {
		return translate("array remove", err)
	}
	return nil
}

func (f *Firestore) Delete(ctx context.Context, uid string) error {
	if _, err := f.doc(uid).Delete(ctx); err != nil {
		return translate("delete", err)
	}
	return nil
}

func (f *Firestore) Close() error {
	return f.client.Close()
}

func translate(op string, err error) error {
	if status.Code(err) == codes.NotFound {
		return fmt.Errorf("firestore %s: %w", op, ErrNotFound)
	}
	return fmt.Errorf("firestore %s: %w", op, err)
}
