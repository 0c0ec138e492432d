package sqlinline

const QEnqueueRenderJob = `--sql 27b215b6-220f-489a-88ee-aff892772efe
insert into render_jobs (
    id, kind, provider, status, prompt, refinement, duration,
    start_image, end_image, payment_id, amount, currency, user_email, country,
    created_at, updated_at
)
values (
    gen_random_uuid(), $1::text, $2::text, 'queued', $3::text, $4::text, $5::text,
    $6::bytea, $7::bytea, $8::text, $9::bigint, $10::text, $11::text, $12::text,
    now(), now()
)
returning id;
`

const QWorkerClaimRenderJob = `--sql 3de00dcd-dd67-47df-a3de-56c6176abe6e
with next_job as (
    select id
    from render_jobs
    where status = 'queued'
    order by created_at asc
    for update skip locked
    limit 1
),
updated as (
    update render_jobs
    set status = 'submitted', updated_at = now()
    where id in (select id from next_job)
    returning id, kind, provider, prompt, refinement, duration,
              start_image, end_image, payment_id, amount, currency, user_email, country
)
select * from updated;
`

// Claims abandoned by a dead worker sit in submitted/polling with an
// unresolved payment hold. Once the row is older than the whole poll budget
// nothing legitimate can still be driving it, so it goes back to the queue.
const QRequeueStaleRenderJobs = `--sql 8c1f5a02-6f4e-4b8a-9c63-2dc45d10b97e
update render_jobs
set status = 'queued', updated_at = now()
where status in ('submitted', 'polling')
  and updated_at < now() - ($1::bigint * interval '1 second');
`

const QUpdateRenderJobStatus = `--sql a083522b-bf30-4941-815f-82e0aa6af5bf
update render_jobs
set status = $2::text,
    task_id = coalesce(nullif($3::text, ''), task_id),
    artifact_key = coalesce(nullif($4::text, ''), artifact_key),
    error_message = $5::text,
    updated_at = now()
where id = $1::uuid;
`

const QUpdateRenderJobProgress = `--sql 3db3db11-403f-46d8-990c-8c38beda54e6
update render_jobs
set progress = $2::int, updated_at = now()
where id = $1::uuid;
`

const QSelectRenderJob = `--sql 031c5d0a-1eac-42e7-b6c0-b721557f0fa9
select id, kind, provider, status, coalesce(task_id, ''), coalesce(artifact_key, ''),
       coalesce(error_message, ''), coalesce(progress, 0), payment_id, amount, currency,
       created_at, updated_at
from render_jobs
where id = $1::uuid;
`
