package model

// Job mirrors a job_status row. The API itself returns rows as column maps;
// this type is used when seeding the table.
type Job struct {
	ID        int64
	Program   string
	StartTime string
	EndTime   *string
	Params    string
}
