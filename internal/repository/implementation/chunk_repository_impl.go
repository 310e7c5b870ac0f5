package implementation

import (
	"context"

	"github.com/ashebbar-dev/Ojas-EB/internal/model"
	"github.com/ashebbar-dev/Ojas-EB/internal/repository/contract"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type ChunkRepositoryImpl struct {
	db *gorm.DB
}

func NewChunkRepository(db *gorm.DB) contract.ChunkRepository {
	return &ChunkRepositoryImpl{db: db}
}

type scoredChunkRow struct {
	Id           uuid.UUID
	Content      string
	SourceUrl    string
	PageTitle    string
	TopicHeading string
	Similarity   float64
}

// SimpleHybridSearch computes cosine similarity via pgvector distance:
// 1 - (embedding <=> query_vector). A row qualifies if it clears the
// similarity threshold or contains the keyword verbatim.
func (r *ChunkRepositoryImpl) SimpleHybridSearch(ctx context.Context, embedding []float32, keyword string, matchCount int, threshold float64) ([]contract.RetrievedChunk, error) {
	if matchCount <= 0 {
		matchCount = 30
	}

	queryVector := pgvector.NewVector(embedding)
	var rows []scoredChunkRow

	err := r.db.WithContext(ctx).
		Table(model.Chunk{}.TableName()).
		Select("chunks.id, chunks.content, chunks.source_url, chunks.page_title, chunks.topic_heading, 1 - (chunks.embedding <=> ?) as similarity", queryVector).
		Where("chunks.deleted_at IS NULL").
		Where("1 - (chunks.embedding <=> ?) >= ? OR chunks.content ILIKE ?", queryVector, threshold, "%"+keyword+"%").
		Order("similarity DESC").
		Limit(matchCount).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return toRetrievedChunks(rows), nil
}

// TitleFilteredSearch restricts ranking to chunks from the best
// title-matching pages, so a query naming a document surfaces that
// document even when its body similarity is mediocre.
func (r *ChunkRepositoryImpl) TitleFilteredSearch(ctx context.Context, embedding []float32, keyword string, matchCount int, threshold float64, titleMatchCount int) ([]contract.RetrievedChunk, error) {
	if matchCount <= 0 {
		matchCount = 30
	}
	if titleMatchCount <= 0 {
		titleMatchCount = 10
	}

	queryVector := pgvector.NewVector(embedding)

	titleQuery := r.db.Table(model.Chunk{}.TableName()).
		Select("DISTINCT page_title").
		Where("deleted_at IS NULL").
		Where("page_title ILIKE ?", "%"+keyword+"%").
		Limit(titleMatchCount)

	var rows []scoredChunkRow
	err := r.db.WithContext(ctx).
		Table(model.Chunk{}.TableName()).
		Select("chunks.id, chunks.content, chunks.source_url, chunks.page_title, chunks.topic_heading, 1 - (chunks.embedding <=> ?) as similarity", queryVector).
		Where("chunks.deleted_at IS NULL").
		Where("chunks.page_title IN (?)", titleQuery).
		Where("1 - (chunks.embedding <=> ?) >= ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(matchCount).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	return toRetrievedChunks(rows), nil
}

func toRetrievedChunks(rows []scoredChunkRow) []contract.RetrievedChunk {
	chunks := make([]contract.RetrievedChunk, len(rows))
	for i, row := range rows {
		chunks[i] = contract.RetrievedChunk{
			Id:           row.Id,
			Content:      row.Content,
			SourceUrl:    row.SourceUrl,
			PageTitle:    row.PageTitle,
			TopicHeading: row.TopicHeading,
			Similarity:   row.Similarity,
		}
	}
	return chunks
}
