package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hoshinonyaruko/snake-in-iframe/structs"
	_ "github.com/mattn/go-sqlite3"
)

// 只保存在内存中，进程退出即丢失；分数不跨会话保存
// 每个 Journal 用独立的库名，同一进程里的多个 Journal 互不可见
func memoryDSN() string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
}

const createRoundsTableSQL = `
CREATE TABLE IF NOT EXISTS Rounds (
    RoundID TEXT PRIMARY KEY,
    Score INTEGER,
    Length INTEGER,
    Ticks INTEGER,
    EndedAt TIMESTAMP
);
`

const createRoundsIndexSQL = `
CREATE INDEX IF NOT EXISTS idx_rounds_ended ON Rounds (EndedAt);
`

func executeSQL(db *sql.DB, sqlStatement string) error {
	if _, err := db.Exec(sqlStatement); err != nil {
		return fmt.Errorf("executing SQL statement %q: %w", sqlStatement, err)
	}
	return nil
}

func InitializeDatabase(db *sql.DB) error {
	for _, stmt := range []string{createRoundsTableSQL, createRoundsIndexSQL} {
		if err := executeSQL(db, stmt); err != nil {
			return err
		}
	}
	return nil
}

// Journal keeps the rounds played by this process.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens the in-memory round journal.
func OpenJournal() (*Journal, error) {
	db, err := sql.Open("sqlite3", memoryDSN())
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	// 内存数据库在最后一个连接关闭时销毁
	db.SetMaxOpenConns(1)
	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if err := InitializeDatabase(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Journal{db: db}, nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// RecordRound 记录一局结束的结果
func (j *Journal) RecordRound(r structs.Round) error {
	_, err := j.db.Exec("INSERT OR REPLACE INTO Rounds (RoundID, Score, Length, Ticks, EndedAt) VALUES (?, ?, ?, ?, ?)",
		r.RoundID, r.Score, r.Length, r.Ticks, r.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("record round %s: %w", r.RoundID, err)
	}
	return nil
}

// Rounds returns up to limit rounds, most recent first.
func (j *Journal) Rounds(limit int) ([]structs.Round, error) {
	rows, err := j.db.Query("SELECT RoundID, Score, Length, Ticks, EndedAt FROM Rounds ORDER BY EndedAt DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []structs.Round
	for rows.Next() {
		var r structs.Round
		var endedAt time.Time
		if err := rows.Scan(&r.RoundID, &r.Score, &r.Length, &r.Ticks, &endedAt); err != nil {
			return nil, fmt.Errorf("scan round: %w", err)
		}
		r.EndedAt = endedAt
		rounds = append(rounds, r)
	}
	return rounds, rows.Err()
}

// BestScore 本次进程内的最高分
func (j *Journal) BestScore() (int, error) {
	var best sql.NullInt64
	if err := j.db.QueryRow("SELECT MAX(Score) FROM Rounds").Scan(&best); err != nil {
		return 0, fmt.Errorf("query best score: %w", err)
	}
	return int(best.Int64), nil
}
