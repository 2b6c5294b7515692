package executor_test

import (
	"time"

	"critical-approve/internal/models"
	"critical-approve/internal/repositories"
)

func statusChange(req *models.ApprovalRequest, to models.RequestStatus) repositories.StatusChange {
	return repositories.StatusChange{
		RequestID: req.ID,
		Version:   req.Version,
		From:      req.Status,
		To:        to,
		Actor:     "carlos",
		At:        time.Now(),
	}
}
