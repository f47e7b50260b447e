package store

import (
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var analysisColumns = []string{
	"id",
	"created_at",
	"target_job_title",
	"ats_score",
	"job_description",
	"resume_text",
	"analysis_json",
}

func insertUserQuery(id uuid.UUID, username, email, passwordHash string) (string, []any, error) {
	return psql.Insert("users").
		Columns("id", "username", "email", "password_hash").
		Values(id, username, email, passwordHash).
		Suffix("RETURNING created_at").
		ToSql()
}

func userByEmailQuery(email string) (string, []any, error) {
	return psql.Select("id", "username", "email", "password_hash", "created_at").
		From("users").
		Where(sq.Eq{"email": email}).
		ToSql()
}

func insertAnalysisQuery(userID uuid.UUID, a Analysis) (string, []any, error) {
	return psql.Insert("resume_analyses").
		Columns("user_id", "resume_text", "job_description", "ats_score", "analysis_json", "target_job_title").
		Values(userID, a.ResumeText, a.JobDescription, a.ATSScore, string(a.AnalysisJSON), a.TargetJobTitle).
		Suffix("RETURNING id").
		ToSql()
}

func listAnalysesQuery(userID uuid.UUID) (string, []any, error) {
	return psql.Select(analysisColumns...).
		From("resume_analyses").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("created_at DESC", "id DESC").
		ToSql()
}

func deleteAnalysisQuery(userID uuid.UUID, id int64) (string, []any, error) {
	return psql.Delete("resume_analyses").
		Where(sq.Eq{"id": id, "user_id": userID}).
		ToSql()
}
