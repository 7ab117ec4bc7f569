package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	config "github.com/phillip/tour-booking-go/config"
	utils "github.com/phillip/tour-booking-go/utils"
)

// The generic handlers below are parametrized by entity type. Each entity
// controller wires its own fixup/after hooks (slug generation, rating
// recomputation) so nothing happens implicitly on persistence.

// etagger is implemented by entities that support conditional GETs.
type etagger interface {
	ETagParts() (primitive.ObjectID, time.Time)
}

const dbTimeout = 5 * time.Second

func fail(c *gin.Context, err error) {
	c.Error(err)
	c.Abort()
}

// createHandler inserts one document from the request body. The fixup hook
// runs after validation and must assign the document id and defaults.
func createHandler[T any](cfg *config.Config, collection string, fixup func(c *gin.Context, doc *T) error, after func(ctx context.Context, doc *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		var doc T
		if err := c.ShouldBindJSON(&doc); err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, err.Error()))
			return
		}

		if fixup != nil {
			if err := fixup(c, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		if err := utils.ValidateStruct(&doc); err != nil {
			fail(c, err)
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection(collection)
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		if _, err := col.InsertOne(ctx, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				fail(c, utils.NewAppError(http.StatusConflict, "A document with the same unique value already exists"))
				return
			}
			fail(c, err)
			return
		}

		if after != nil {
			if err := after(ctx, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		c.JSON(http.StatusCreated, gin.H{
			"status": "success",
			"data":   doc,
		})
	}
}

// getHandler fetches one document by id. A loader replaces the default
// FindOne when the read needs relation loading; absence short-circuits to 404.
func getHandler[T any](cfg *config.Config, collection string, base bson.M, loader func(ctx context.Context, id primitive.ObjectID) (*T, error), transform func(*T)) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Invalid document id"))
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var doc *T
		if loader != nil {
			doc, err = loader(ctx, id)
		} else {
			filter := bson.M{"_id": id}
			for key, value := range base {
				filter[key] = value
			}

			var found T
			err = cfg.MongoClient.Database(cfg.DBName).Collection(collection).
				FindOne(ctx, filter).Decode(&found)
			doc = &found
		}

		if err != nil {
			if err == mongo.ErrNoDocuments {
				fail(c, utils.NewAppError(http.StatusNotFound, "No document found with the given id"))
				return
			}
			fail(c, err)
			return
		}
		if doc == nil {
			fail(c, utils.NewAppError(http.StatusNotFound, "No document found with the given id"))
			return
		}

		if transform != nil {
			transform(doc)
		}

		if e, ok := any(doc).(etagger); ok {
			docID, updatedAt := e.ETagParts()
			etag := utils.GenerateETag(docID, updatedAt)
			if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
				c.Status(http.StatusNotModified)
				return
			}
			c.Header("ETag", etag)
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   doc,
		})
	}
}

// listHandler delegates the read entirely to the query translator. The base
// hook injects route scoping and secrecy filters that override client input.
func listHandler[T any](cfg *config.Config, collection string, base func(c *gin.Context) (bson.M, error), transform func(*T)) gin.HandlerFunc {
	return func(c *gin.Context) {
		baseFilter := bson.M{}
		if base != nil {
			var err error
			if baseFilter, err = base(c); err != nil {
				fail(c, err)
				return
			}
		}

		handler := utils.NewDBHandler(c.Request.URL.Query()).
			Filter().
			Sort().
			Fields().
			Paginate()

		col := cfg.MongoClient.Database(cfg.DBName).Collection(collection)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		docs := make([]T, 0)
		meta, err := handler.Fetch(ctx, col, baseFilter, &docs)
		if err != nil {
			fail(c, err)
			return
		}

		var latestTag string
		var latestTime time.Time
		for i := range docs {
			if transform != nil {
				transform(&docs[i])
			}
			if e, ok := any(&docs[i]).(etagger); ok {
				id, updatedAt := e.ETagParts()
				if updatedAt.After(latestTime) {
					latestTime = updatedAt
					latestTag = utils.GenerateETag(id, updatedAt)
				}
			}
		}

		if latestTag != "" {
			if match := c.GetHeader("If-None-Match"); match != "" && match == latestTag {
				c.Status(http.StatusNotModified)
				return
			}
			c.Header("ETag", latestTag)
			c.Header("Last-Modified", latestTime.UTC().Format(http.TimeFormat))
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   docs,
			"meta":   meta,
		})
	}
}

// updateHandler applies a partial update by merging the request body onto the
// stored document, re-running validation, then replacing it atomically by id.
// The fixup hook receives the pre-merge original so it can enforce ownership
// and restore immutable fields.
func updateHandler[T any](cfg *config.Config, collection string, fixup func(c *gin.Context, original, doc *T) error, after func(ctx context.Context, doc *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Invalid document id"))
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection(collection)
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var doc T
		if err := col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
			if err == mongo.ErrNoDocuments {
				fail(c, utils.NewAppError(http.StatusNotFound, "No document found with the given id"))
				return
			}
			fail(c, err)
			return
		}

		original := doc

		// merge: absent body fields keep their stored values
		if err := c.ShouldBindJSON(&doc); err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, err.Error()))
			return
		}

		if fixup != nil {
			if err := fixup(c, &original, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		if err := utils.ValidateStruct(&doc); err != nil {
			fail(c, err)
			return
		}

		if _, err := col.ReplaceOne(ctx, bson.M{"_id": id}, doc); err != nil {
			if mongo.IsDuplicateKeyError(err) {
				fail(c, utils.NewAppError(http.StatusConflict, "A document with the same unique value already exists"))
				return
			}
			fail(c, err)
			return
		}

		if after != nil {
			if err := after(ctx, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   doc,
		})
	}
}

// deleteHandler removes one document by id; absence short-circuits to 404.
func deleteHandler[T any](cfg *config.Config, collection string, after func(ctx context.Context, doc *T) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := primitive.ObjectIDFromHex(c.Param("id"))
		if err != nil {
			fail(c, utils.NewAppError(http.StatusBadRequest, "Invalid document id"))
			return
		}

		col := cfg.MongoClient.Database(cfg.DBName).Collection(collection)
		ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
		defer cancel()

		var doc T
		if err := col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
			if err == mongo.ErrNoDocuments {
				fail(c, utils.NewAppError(http.StatusNotFound, "No document found with the given id"))
				return
			}
			fail(c, err)
			return
		}

		if after != nil {
			if err := after(ctx, &doc); err != nil {
				fail(c, err)
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status": "success",
			"data":   doc,
		})
	}
}
