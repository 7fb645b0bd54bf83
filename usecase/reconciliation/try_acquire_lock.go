package reconciliation

import (
	"context"
	"fmt"

	"github.com/labstack/gommon/log"
)

// TryAcquireLock claims a transaction for one worker's inquiry. ok is false when another worker
// holds it.
func (u *reconciliationUsecase) TryAcquireLock(ctx context.Context, trxID int64) (func(), bool, error) {
	unlock, ok, err := u.locker.TryLock(ctx, fmt.Sprintf("reconcile:%d", trxID))
	if err != nil || !ok {
		return nil, ok, err
	}

	log.Debugf("[LOCK_PROCESS] trx_id:%d", trxID)
	return func() {
		unlock()
		log.Debugf("[UNLOCK_PROCESS] trx_id:%d", trxID)
	}, true, nil
}
