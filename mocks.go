/*
Copyright 2025 SafeSend Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package safesend

import (
	"context"

	"github.com/safesendhq/safesend/model"
)

type MockSafeSend struct {
	SafeSend
	mockGetEscrow func(int64) (*model.Escrow, error)
	mockGetOffer  func(string) (*model.Offer, error)
}

func (m *MockSafeSend) GetEscrow(id int64) (*model.Escrow, error) {
	if m.mockGetEscrow != nil {
		return m.mockGetEscrow(id)
	}
	return m.SafeSend.GetEscrow(context.Background(), id)
}

func (m *MockSafeSend) GetOfferMetadata(offerID string) (*model.Offer, error) {
	if m.mockGetOffer != nil {
		return m.mockGetOffer(offerID)
	}
	return m.SafeSend.GetOfferMetadata(context.Background(), offerID)
}
