package sqlinline

const QSelectCoupon = `--sql 3f9d6c3b-f188-4b0f-8b02-e9c7a4fbb11d
select code, kind, value, is_active
from coupons
where code = $1::text
limit 1;
`

const QSelectSessionState = `--sql 14b23f6a-8023-455c-83bc-91226fa7cd87
select free_claim_used, guest_credits
from session_state
where session_id = $1::text;
`

const QUpsertSessionState = `--sql 32145600-511f-4c98-aba8-07f24dd51c6e
insert into session_state (session_id, free_claim_used, guest_credits, updated_at)
values ($1::text, $2::boolean, $3::int, now())
on conflict (session_id) do update set
    free_claim_used = excluded.free_claim_used,
    guest_credits = excluded.guest_credits,
    updated_at = now();
`
