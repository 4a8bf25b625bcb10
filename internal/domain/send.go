package domain

import "strconv"

type SendReport struct {
	ResourceID  ResourceID
	SentInBatch *int
	TotalSent   *int
	Output      string
}

func (r SendReport) SentInBatchLabel() string {
	return countLabel(r.SentInBatch)
}

func (r SendReport) TotalSentLabel() string {
	return countLabel(r.TotalSent)
}

func countLabel(v *int) string {
	if v == nil || *v == 0 {
		return "N/A"
	}
	return strconv.Itoa(*v)
}
