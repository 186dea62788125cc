package workflow

import (
	"context"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/procurement_backend/config"
	"bitbucket.org/mmdatafocus/procurement_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const conversionLockTTL = 30 * time.Second

// obtainConversionLock serializes conversions of one source document. Two
// concurrent conversions of the same document would both read the same
// remaining quantities and double-convert. The lock covers the whole
// conversion transaction; TTL backstops a crashed holder.
//
// When redis is not ready the conversion proceeds unlocked, same as the rest
// of the codebase treats redis as an accelerator rather than a dependency.
func obtainConversionLock(ctx context.Context, businessId string, docType string, docId int) (*redislock.Lock, error) {
	locker := config.GetRedisLock()
	logger := config.GetLogger()
	if locker == nil {
		logger.WithFields(logrus.Fields{
			"business_id": businessId,
			"doc_type":    docType,
			"doc_id":      docId,
		}).Warn("redis lock not ready; proceeding without conversion lock")
		return nil, nil
	}
	lockKey := fmt.Sprintf("convert:%s:%s:%d", businessId, docType, docId)
	lock, err := locker.Obtain(ctx, lockKey, conversionLockTTL, nil)
	if err == redislock.ErrNotObtained {
		return nil, utils.NewStateError("document is already being converted")
	} else if err != nil {
		return nil, err
	}
	return lock, nil
}

func releaseConversionLock(ctx context.Context, lock *redislock.Lock) {
	if lock != nil {
		_ = lock.Release(ctx)
	}
}
