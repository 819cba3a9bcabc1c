package repository

import (
	"context"
	"time"

	"github.com/dharsanguruparan/VerseVault/internal/model"
)

const bookColumns = `id, document_id, title, description, language, total_chapters, total_verses, finalized_at, created_at, updated_at`

// InsertBook stores a book. books.document_id is unique.
func (r *Repository) InsertBook(ctx context.Context, book *model.Book) error {
	now := time.Now().UTC()
	book.CreatedAt = now
	book.UpdatedAt = now
	_, err := r.pool.Exec(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
	`, book.ID, book.DocumentID, book.Title, book.Description, book.Language,
		book.TotalChapters, book.TotalVerses, book.FinalizedAt, book.CreatedAt, book.UpdatedAt)
	return mapError("insert book", err)
}

// BookByDocument returns the book attached to a document.
func (r *Repository) BookByDocument(ctx context.Context, documentID string) (*model.Book, error) {
	var b model.Book
	row := r.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE document_id=$1`, documentID)
	if err := row.Scan(&b.ID, &b.DocumentID, &b.Title, &b.Description, &b.Language,
		&b.TotalChapters, &b.TotalVerses, &b.FinalizedAt, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, mapError("select book for document "+documentID, err)
	}
	return &b, nil
}

// UpdateBook writes metadata, totals and finalization time.
func (r *Repository) UpdateBook(ctx context.Context, book *model.Book) error {
	book.UpdatedAt = time.Now().UTC()
	tag, err := r.pool.Exec(ctx, `
		UPDATE books
		SET title=$1, description=$2, language=$3, total_chapters=$4, total_verses=$5, finalized_at=$6, updated_at=$7
		WHERE id=$8
	`, book.Title, book.Description, book.Language, book.TotalChapters, book.TotalVerses, book.FinalizedAt, book.UpdatedAt, book.ID)
	if err != nil {
		return mapError("update book", err)
	}
	return requireRow("update book "+book.ID, tag)
}

// InsertChapter stores a chapter, unique per (book, number).
func (r *Repository) InsertChapter(ctx context.Context, ch *model.Chapter) error {
	ch.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO chapters (id, book_id, number, title, verse_count, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
	`, ch.ID, ch.BookID, ch.Number, ch.Title, ch.VerseCount, ch.CreatedAt)
	return mapError("insert chapter", err)
}

// UpdateChapterVerseCount sets the verse count of one chapter.
func (r *Repository) UpdateChapterVerseCount(ctx context.Context, bookID string, number, count int) error {
	tag, err := r.pool.Exec(ctx, `UPDATE chapters SET verse_count=$1 WHERE book_id=$2 AND number=$3`, count, bookID, number)
	if err != nil {
		return mapError("update chapter", err)
	}
	return requireRow("update chapter", tag)
}

// ListChapters returns the book's chapters ordered by number.
func (r *Repository) ListChapters(ctx context.Context, bookID string) ([]model.Chapter, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, book_id, number, title, verse_count, created_at
		FROM chapters WHERE book_id=$1 ORDER BY number
	`, bookID)
	if err != nil {
		return nil, mapError("list chapters", err)
	}
	defer rows.Close()
	var out []model.Chapter
	for rows.Next() {
		var ch model.Chapter
		if err := rows.Scan(&ch.ID, &ch.BookID, &ch.Number, &ch.Title, &ch.VerseCount, &ch.CreatedAt); err != nil {
			return nil, mapError("scan chapter", err)
		}
		out = append(out, ch)
	}
	return out, mapError("list chapters", rows.Err())
}

// InsertVerse stores a verse, unique per (book, chapter, number).
func (r *Repository) InsertVerse(ctx context.Context, v *model.Verse) error {
	v.CreatedAt = time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO verses (id, book_id, chapter_number, number, text, translation, analyzed, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, v.ID, v.BookID, v.ChapterNumber, v.Number, v.Text, v.Translation, v.Analyzed, v.CreatedAt)
	return mapError("insert verse", err)
}

// ListVerses returns one chapter's verses ordered by number.
func (r *Repository) ListVerses(ctx context.Context, bookID string, chapter int) ([]model.Verse, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, book_id, chapter_number, number, text, translation, analyzed, created_at
		FROM verses WHERE book_id=$1 AND chapter_number=$2 ORDER BY number
	`, bookID, chapter)
	if err != nil {
		return nil, mapError("list verses", err)
	}
	defer rows.Close()
	var out []model.Verse
	for rows.Next() {
		var v model.Verse
		if err := rows.Scan(&v.ID, &v.BookID, &v.ChapterNumber, &v.Number, &v.Text, &v.Translation, &v.Analyzed, &v.CreatedAt); err != nil {
			return nil, mapError("scan verse", err)
		}
		out = append(out, v)
	}
	return out, mapError("list verses", rows.Err())
}

// VerseCounts returns the number of stored verses per chapter number.
func (r *Repository) VerseCounts(ctx context.Context, bookID string) (map[int]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT chapter_number, COUNT(*)
		FROM verses WHERE book_id=$1 GROUP BY chapter_number
	`, bookID)
	if err != nil {
		return nil, mapError("verse counts", err)
	}
	defer rows.Close()
	out := make(map[int]int)
	for rows.Next() {
		var chapter, count int
		if err := rows.Scan(&chapter, &count); err != nil {
			return nil, mapError("scan verse count", err)
		}
		out[chapter] = count
	}
	return out, mapError("verse counts", rows.Err())
}

// VerseStats returns the number of stored verses and how many are analyzed.
func (r *Repository) VerseStats(ctx context.Context, bookID string) (total, analyzed int, err error) {
	row := r.pool.QueryRow(ctx, `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE analyzed)
		FROM verses WHERE book_id=$1
	`, bookID)
	if err := row.Scan(&total, &analyzed); err != nil {
		return 0, 0, mapError("verse stats", err)
	}
	return total, analyzed, nil
}
