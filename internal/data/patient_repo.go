package data

import (
	"context"

	"clinicflow/subscription-service/internal/biz"
	"clinicflow/subscription-service/internal/data/model"

	"github.com/go-kratos/kratos/v2/log"
)

type patientCounter struct {
	data *Data
	log  *log.Helper
}

// NewPatientCounter creates the patient counter over the shared patient table
func NewPatientCounter(data *Data, logger log.Logger) biz.PatientCounter {
	return &patientCounter{
		data: data,
		log:  log.NewHelper(logger),
	}
}

// CountPatients counts the account's patients, soft-deleted rows excluded
func (r *patientCounter) CountPatients(ctx context.Context, accountID string) (int, error) {
	var count int64
	if err := r.data.DB(ctx).Model(&model.Patient{}).Where("account_id = ?", accountID).Count(&count).Error; err != nil {
		r.log.Errorf("Failed to count patients for account %s: %v", accountID, err)
		return 0, err
	}
	return int(count), nil
}
