package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"support-bot/config"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	_ "modernc.org/sqlite"
)

// DB holds ticket reviews and powers per-staff stats. It is optional:
// when Init fails the bot runs without stats.
var DB Database

type Review struct {
	TicketID  string `json:"ticket_id"  bson:"ticket_id"`
	UserID    string `json:"user_id"    bson:"user_id"`
	StaffID   string `json:"staff_id"   bson:"staff_id"`
	Rating    int    `json:"rating"     bson:"rating"`
	Comment   string `json:"comment"    bson:"comment"`
	Timestamp string `json:"timestamp"  bson:"timestamp"`
}

type StaffStats struct {
	Closed        int
	AverageRating float64
}

type Database interface {
	Init() error
	Close() error

	AddReview(guildID string, r Review) error
	GetReviews(guildID, staffID string, limit int) ([]Review, error)
	StaffStats(guildID, staffID string) (StaffStats, error)
}

func InitDB(cfg *config.DatabaseConfig) error {
	switch cfg.Driver {
	case "sqlite":
		db := &SQLiteDB{Path: cfg.SQLite.Path}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	case "mongodb":
		db := &MongoDB{URI: cfg.MongoDB.URI, DBName: cfg.MongoDB.Database}
		if err := db.Init(); err != nil {
			return err
		}
		DB = db
		return nil

	default:
		return fmt.Errorf("unsupported database driver: %s (use \"sqlite\" or \"mongodb\")", cfg.Driver)
	}
}

type SQLiteDB struct {
	Path string
	db   *sql.DB
}

func (s *SQLiteDB) Init() error {
	_ = os.MkdirAll(filepath.Dir(s.Path), 0755)

	db, err := sql.Open("sqlite", s.Path)
	if err != nil {
		return fmt.Errorf("sqlite open: %w", err)
	}
	s.db = db

	schema := `
	CREATE TABLE IF NOT EXISTS reviews (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		guild_id    TEXT NOT NULL,
		ticket_id   TEXT NOT NULL,
		user_id     TEXT NOT NULL,
		staff_id    TEXT NOT NULL DEFAULT '',
		rating      INTEGER NOT NULL,
		comment     TEXT NOT NULL DEFAULT '',
		timestamp   TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_reviews_guild_staff ON reviews(guild_id, staff_id);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("sqlite schema: %w", err)
	}
	log.Printf("[DB] SQLite initialised at %s", s.Path)
	return nil
}

func (s *SQLiteDB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteDB) AddReview(guildID string, r Review) error {
	_, err := s.db.Exec(
		"INSERT INTO reviews (guild_id, ticket_id, user_id, staff_id, rating, comment, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?)",
		guildID, r.TicketID, r.UserID, r.StaffID, r.Rating, r.Comment, r.Timestamp,
	)
	return err
}

func (s *SQLiteDB) GetReviews(guildID, staffID string, limit int) ([]Review, error) {
	rows, err := s.db.Query(
		"SELECT ticket_id, user_id, staff_id, rating, comment, timestamp FROM reviews WHERE guild_id = ? AND staff_id = ? ORDER BY id DESC LIMIT ?",
		guildID, staffID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var r Review
		if err := rows.Scan(&r.TicketID, &r.UserID, &r.StaffID, &r.Rating, &r.Comment, &r.Timestamp); err != nil {
			continue
		}
		reviews = append(reviews, r)
	}
	return reviews, rows.Err()
}

func (s *SQLiteDB) StaffStats(guildID, staffID string) (StaffStats, error) {
	var stats StaffStats
	var avg sql.NullFloat64
	err := s.db.QueryRow(
		"SELECT COUNT(*), AVG(rating) FROM reviews WHERE guild_id = ? AND staff_id = ?",
		guildID, staffID,
	).Scan(&stats.Closed, &avg)
	if err != nil {
		return stats, err
	}
	if avg.Valid {
		stats.AverageRating = avg.Float64
	}
	return stats, nil
}

type MongoDB struct {
	URI    string
	DBName string

	client  *mongo.Client
	reviews *mongo.Collection
}

func (m *MongoDB) Init() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(m.URI))
	if err != nil {
		return fmt.Errorf("mongodb connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return fmt.Errorf("mongodb ping: %w", err)
	}

	m.client = client
	m.reviews = client.Database(m.DBName).Collection("ticket_reviews")

	_, _ = m.reviews.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "guild_id", Value: 1}, {Key: "staff_id", Value: 1}},
	})

	log.Printf("[DB] MongoDB initialised (%s)", m.DBName)
	return nil
}

func (m *MongoDB) Close() error {
	if m.client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return m.client.Disconnect(ctx)
	}
	return nil
}

func (m *MongoDB) AddReview(guildID string, r Review) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := m.reviews.InsertOne(ctx, bson.M{
		"guild_id":  guildID,
		"ticket_id": r.TicketID,
		"user_id":   r.UserID,
		"staff_id":  r.StaffID,
		"rating":    r.Rating,
		"comment":   r.Comment,
		"timestamp": r.Timestamp,
	})
	return err
}

func (m *MongoDB) GetReviews(guildID, staffID string, limit int) ([]Review, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(int64(limit))
	cursor, err := m.reviews.Find(ctx, bson.M{"guild_id": guildID, "staff_id": staffID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var reviews []Review
	return reviews, cursor.All(ctx, &reviews)
}

func (m *MongoDB) StaffStats(guildID, staffID string) (StaffStats, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var stats StaffStats
	cursor, err := m.reviews.Aggregate(ctx, mongo.Pipeline{
		bson.D{{Key: "$match", Value: bson.M{"guild_id": guildID, "staff_id": staffID}}},
		bson.D{{Key: "$group", Value: bson.M{
			"_id":    nil,
			"closed": bson.M{"$sum": 1},
			"avg":    bson.M{"$avg": "$rating"},
		}}},
	})
	if err != nil {
		return stats, err
	}
	defer cursor.Close(ctx)

	if cursor.Next(ctx) {
		var doc struct {
			Closed int     `bson:"closed"`
			Avg    float64 `bson:"avg"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return stats, err
		}
		stats.Closed = doc.Closed
		stats.AverageRating = doc.Avg
	}
	return stats, cursor.Err()
}
