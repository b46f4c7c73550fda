package businessflow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/dto"
	"github.com/xplorebytesolutions/growmycustomer-campaigns/app/services"
)

func validRetargetRequest() *dto.SubmitRetargetRequest {
	return &dto.SubmitRetargetRequest{
		CampaignID:   "cmp-1",
		CampaignName: "Follow-up blast",
		Bucket:       "read_not_replied",
		WindowDays:   30,
		Contacts: []dto.RetargetContact{
			{Identifier: "+15551234567"},
			{Identifier: "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		},
		TemplateID:     "tpl-9",
		TemplateBody:   "Hello {{1}}, offer {{2}} awaits",
		TemplateLoaded: true,
		Provider:       "meta",
		PhoneNumberID:  "pn-7",
	}
}

func TestSubmitRetargetSuccess(t *testing.T) {
	client := services.NewMockCampaignLogClient()
	client.RetargetID = "new-cmp-42"
	flow := NewRetargetFlow(client, nil, nil, nil)

	resp, err := flow.SubmitRetarget(context.Background(), validRetargetRequest(), NewClientMetadata("127.0.0.1", "test-agent"))
	require.NoError(t, err)
	assert.Equal(t, "new-cmp-42", resp.NewCampaignID)
	assert.NotEmpty(t, resp.SubmissionUUID)
	assert.Empty(t, resp.MissingVariables)

	require.Len(t, client.SubmittedPayloads, 1)
	payload := client.SubmittedPayloads[0]

	assert.Equal(t, "cmp-1", payload["sourceCampaignId"])
	assert.Equal(t, "Follow-up blast", payload["campaignName"])
	assert.Equal(t, "READ_NOT_REPLIED", payload["bucket"])
	assert.Equal(t, []string{"3fa85f64-5717-4562-b3fc-2c963f66afa6"}, payload["contactIds"])
	assert.Equal(t, []string{"+15551234567"}, payload["recipientNumbers"])

	// Fields are mirrored under a nested campaign object for the older
	// upstream DTO shape.
	nested, ok := payload["campaign"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, payload["sourceCampaignId"], nested["sourceCampaignId"])
	assert.Equal(t, payload["templateId"], nested["templateId"])
	assert.Equal(t, payload["recipientNumbers"], nested["recipientNumbers"])
}

func TestSubmitRetargetValidation(t *testing.T) {
	newFlow := func() (RetargetFlow, *services.MockCampaignLogClient) {
		client := services.NewMockCampaignLogClient()
		return NewRetargetFlow(client, nil, nil, nil), client
	}

	t.Run("IneligibleStatusFailsClosed", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Status: "DRAFT"}

		_, err := flow.SubmitRetarget(context.Background(), validRetargetRequest(), nil)
		assert.True(t, IsCampaignNotEligible(err))
		assert.Empty(t, client.SubmittedPayloads)
	})

	t.Run("EmptyStatusFailsClosed", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Status: ""}

		_, err := flow.SubmitRetarget(context.Background(), validRetargetRequest(), nil)
		assert.True(t, IsCampaignNotEligible(err))
	})

	t.Run("SubstringStatusIsEligible", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Status: "CAMPAIGN_COMPLETED"}

		_, err := flow.SubmitRetarget(context.Background(), validRetargetRequest(), nil)
		require.NoError(t, err)
		assert.Len(t, client.SubmittedPayloads, 1)
	})

	t.Run("NoContacts", func(t *testing.T) {
		flow, _ := newFlow()
		req := validRetargetRequest()
		req.Contacts = nil

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsNoContactsSelected(err))
	})

	t.Run("NoTemplate", func(t *testing.T) {
		flow, _ := newFlow()
		req := validRetargetRequest()
		req.TemplateID = ""

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsTemplateNotSelected(err))
	})

	t.Run("TemplateStillLoading", func(t *testing.T) {
		flow, _ := newFlow()
		req := validRetargetRequest()
		req.TemplateLoaded = false

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsTemplateNotLoaded(err))
	})

	t.Run("SenderNotResolvable", func(t *testing.T) {
		flow, _ := newFlow()
		req := validRetargetRequest()
		req.Provider = ""
		req.PhoneNumberID = ""

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsSenderNotResolvable(err))
	})

	t.Run("SenderFallsBackToCampaignDetail", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Status: "SENT", Provider: "meta", PhoneNumberID: "pn-9"}
		req := validRetargetRequest()
		req.Provider = ""
		req.PhoneNumberID = ""

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		require.NoError(t, err)
		assert.Equal(t, "meta", client.SubmittedPayloads[0]["provider"])
		assert.Equal(t, "pn-9", client.SubmittedPayloads[0]["phoneNumberId"])
	})

	t.Run("BlankNameRejected", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Name: "Spring Sale", Status: "SENT"}
		req := validRetargetRequest()
		req.CampaignName = "  "

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsCampaignNameRequired(err))
		assert.Empty(t, client.SubmittedPayloads)
	})

	t.Run("EmptyNameRejected", func(t *testing.T) {
		flow, client := newFlow()
		client.Campaign = &services.CampaignDetail{ID: "cmp-1", Status: "SENT"}
		req := validRetargetRequest()
		req.CampaignName = ""

		_, err := flow.SubmitRetarget(context.Background(), req, nil)
		assert.True(t, IsCampaignNameRequired(err))
	})
}

func TestPartitionIdentifiers(t *testing.T) {
	contactIDs, numbers := partitionIdentifiers([]dto.RetargetContact{
		{Identifier: "+15551234567"},
		{Identifier: "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
	})
	assert.Equal(t, []string{"3fa85f64-5717-4562-b3fc-2c963f66afa6"}, contactIDs)
	assert.Equal(t, []string{"+15551234567"}, numbers)

	t.Run("DeduplicatesPreservingOrder", func(t *testing.T) {
		contactIDs, numbers := partitionIdentifiers([]dto.RetargetContact{
			{Identifier: "+15550001"},
			{Identifier: "+15550002"},
			{Identifier: "+15550001"},
			{Identifier: "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
			{Identifier: "3fa85f64-5717-4562-b3fc-2c963f66afa6"},
		})
		assert.Equal(t, []string{"3fa85f64-5717-4562-b3fc-2c963f66afa6"}, contactIDs)
		assert.Equal(t, []string{"+15550001", "+15550002"}, numbers)
	})

	t.Run("PhoneRecoveredForSyntheticIdentifier", func(t *testing.T) {
		_, numbers := partitionIdentifiers([]dto.RetargetContact{
			{Identifier: "row-17", Phone: "+15559999"},
		})
		assert.Equal(t, []string{"+15559999"}, numbers)
	})

	t.Run("BlankIdentifierSkipped", func(t *testing.T) {
		contactIDs, numbers := partitionIdentifiers([]dto.RetargetContact{
			{Identifier: "  "},
		})
		assert.Empty(t, contactIDs)
		assert.Empty(t, numbers)
	})
}

func TestIsContactID(t *testing.T) {
	assert.True(t, isContactID("3fa85f64-5717-4562-b3fc-2c963f66afa6"))
	assert.True(t, isContactID("6ba7b810-9dad-11d1-80b4-00c04fd430c8")) // v1

	assert.False(t, isContactID("+15551234567"))
	assert.False(t, isContactID("3fa85f6457174562b3fc2c963f66afa6"))                       // no hyphens
	assert.False(t, isContactID("urn:uuid:3fa85f64-5717-4562-b3fc-2c963f66afa6"))          // urn form
	assert.False(t, isContactID("3fa85f64-5717-7562-b3fc-2c963f66afa6"))                   // version 7
	assert.False(t, isContactID("3fa85f64-5717-4562-13fc-2c963f66afa6"))                   // NCS variant
	assert.False(t, isContactID("00000000-0000-0000-0000-000000000000"))                   // nil uuid
	assert.False(t, isContactID("3fa85f64-5717-4562-b3fc-2c963f66afa6-extra-characters ")) // wrong length
}

func TestExtractPlaceholders(t *testing.T) {
	assert.Equal(t, []int{1, 2}, extractPlaceholders("Hi {{1}}, code {{ 2 }} and again {{1}}"))
	assert.Equal(t, []int{1, 3, 12}, extractPlaceholders("{{12}} {{3}} {{1}}"))
	assert.Empty(t, extractPlaceholders("no placeholders here"))
	assert.Empty(t, extractPlaceholders("{{name}} is not numeric"))
}

func TestResolveTemplateVariables(t *testing.T) {
	placeholders := []int{1, 2, 3, 4}
	configs := []dto.TemplateVariableConfig{
		{Placeholder: 1, Source: "constant", Value: "20% off"},
		{Placeholder: 2, Source: "contact_name"},
		{Placeholder: 3, Source: "constant", Value: "", OnEmpty: "fallback", Fallback: "friend"},
		{Placeholder: 4, Source: "constant", Value: "", OnEmpty: "skip"},
	}

	params, missing := resolveTemplateVariables(placeholders, configs)
	assert.Equal(t, "20% off", params["1"])
	assert.Equal(t, "{{contact.name}}", params["2"])
	assert.Equal(t, "friend", params["3"])
	assert.Equal(t, "", params["4"])
	// Skipped empties are flagged but never block the submission.
	assert.Equal(t, []int{4}, missing)

	t.Run("UnconfiguredPlaceholderIsMissing", func(t *testing.T) {
		_, missing := resolveTemplateVariables([]int{1}, nil)
		assert.Equal(t, []int{1}, missing)
	})

	t.Run("CustomFieldToken", func(t *testing.T) {
		params, _ := resolveTemplateVariables([]int{1}, []dto.TemplateVariableConfig{
			{Placeholder: 1, Source: "custom_field", CustomField: "city"},
		})
		assert.Equal(t, "{{contact.fields.city}}", params["1"])
	})

	t.Run("ContactPhoneToken", func(t *testing.T) {
		params, _ := resolveTemplateVariables([]int{1}, []dto.TemplateVariableConfig{
			{Placeholder: 1, Source: "contact_phone"},
		})
		assert.Equal(t, "{{contact.phone}}", params["1"])
	})
}

func TestIsDynamicButton(t *testing.T) {
	assert.True(t, isDynamicButton(dto.ButtonParam{SubType: "url"}))
	assert.True(t, isDynamicButton(dto.ButtonParam{SubType: "COPY_CODE"}))
	assert.True(t, isDynamicButton(dto.ButtonParam{SubType: "flow"}))
	assert.True(t, isDynamicButton(dto.ButtonParam{SubType: "quick_reply", ParameterValue: "https://x.test/{{1}}"}))

	assert.False(t, isDynamicButton(dto.ButtonParam{SubType: "quick_reply", ParameterValue: "STOP"}))
	assert.False(t, isDynamicButton(dto.ButtonParam{}))
}

func TestSubmitRetargetMissingVariablesReported(t *testing.T) {
	client := services.NewMockCampaignLogClient()
	flow := NewRetargetFlow(client, nil, nil, nil)

	req := validRetargetRequest()
	req.Variables = []dto.TemplateVariableConfig{
		{Placeholder: 1, Source: "constant", Value: "hello"},
	}

	resp, err := flow.SubmitRetarget(context.Background(), req, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{2}, resp.MissingVariables)
}

func TestListSubmissionsWithoutRepository(t *testing.T) {
	flow := NewRetargetFlow(services.NewMockCampaignLogClient(), nil, nil, nil)

	resp, err := flow.ListSubmissions(context.Background(), &dto.ListRetargetsRequest{CampaignID: "cmp-1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Items)
	assert.Equal(t, int64(0), resp.Pagination.Total)
	assert.Equal(t, 1, resp.Pagination.Page)
}

func TestSubmitRetargetUpstreamFailure(t *testing.T) {
	client := services.NewMockCampaignLogClient()
	client.RetargetErr = &services.UpstreamError{StatusCode: 500, Message: "boom"}
	flow := NewRetargetFlow(client, nil, nil, nil)

	_, err := flow.SubmitRetarget(context.Background(), validRetargetRequest(), nil)
	require.Error(t, err)
	assert.False(t, IsRetargetValidationError(err))
}
