package attendance

import (
	"context"

	"attendance-svc/src/internal/cache"

	"github.com/sirupsen/logrus"
)

// cachedDirectory fronts the employee service with the Redis cache so a busy
// check-in window does not hammer the collaborator with existence lookups.
type cachedDirectory struct {
	inner EmployeeDirectory
	cache cache.Service
}

func NewCachedDirectory(inner EmployeeDirectory, cacheService cache.Service) EmployeeDirectory {
	return &cachedDirectory{
		inner: inner,
		cache: cacheService,
	}
}

func (d *cachedDirectory) ExistsById(ctx context.Context, employeeID string) (bool, error) {
	found, exists, err := d.cache.GetEmployeeExists(ctx, employeeID)
	if err == nil && found {
		return exists, nil
	}

	exists, err = d.inner.ExistsById(ctx, employeeID)
	if err != nil {
		return false, err
	}

	if cacheErr := d.cache.SaveEmployeeExists(ctx, employeeID, exists); cacheErr != nil {
		logrus.WithError(cacheErr).WithField("employee_id", employeeID).Debug("Failed to cache employee existence")
	}

	return exists, nil
}
